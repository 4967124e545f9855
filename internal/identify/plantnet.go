package identify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/maelig/identibot/internal/domain"
)

const defaultPlantnetURL = "https://my-api.plantnet.org"

// Plantnet identifies plants through the Pl@ntNet API.
type Plantnet struct {
	apiKey     string
	baseURL    string
	minScore   float64
	httpClient *http.Client
}

// PlantnetConfig holds configuration for the Pl@ntNet client.
type PlantnetConfig struct {
	APIKey   string
	BaseURL  string // defaults to the public API
	MinScore float64
}

// NewPlantnet creates a new Pl@ntNet client.
func NewPlantnet(cfg PlantnetConfig) *Plantnet {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultPlantnetURL
	}
	return &Plantnet{
		apiKey:   cfg.APIKey,
		baseURL:  baseURL,
		minScore: cfg.MinScore,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name returns the provider name.
func (p *Plantnet) Name() string {
	return "Pl@ntNet"
}

// MinScore returns the minimal usable score ratio.
func (p *Plantnet) MinScore() float64 {
	return p.minScore
}

// plantnetResponse is the identification payload, pruned to what the
// classifier reads. Results arrive pre-sorted best-first.
type plantnetResponse struct {
	Results []plantnetResult `json:"results"`
}

type plantnetResult struct {
	Score   float64         `json:"score"`
	Species plantnetSpecies `json:"species"`
	Images  []plantnetImage `json:"images"`
}

type plantnetSpecies struct {
	ScientificName string         `json:"scientificNameWithoutAuthor"`
	Family         plantnetFamily `json:"family"`
	CommonNames    []string       `json:"commonNames"`
}

type plantnetFamily struct {
	ScientificName string `json:"scientificNameWithoutAuthor"`
}

type plantnetImage struct {
	URL      plantnetImageURL `json:"url"`
	Citation string           `json:"citation"`
}

type plantnetImageURL struct {
	O string `json:"o"`
}

// Identify submits the image URL to Pl@ntNet and classifies the response.
// A 404 from the provider means "no species found" and classifies as None;
// it is a valid negative result, not a fault.
func (p *Plantnet) Identify(ctx context.Context, req Request) (Identification, error) {
	if req.DoSimulate {
		return p.classify(simulatedPlantnetResponse(req.SimulateCase))
	}

	q := url.Values{}
	q.Set("images", req.ImageURL)
	q.Set("organs", "auto")
	q.Set("lang", "fr")
	q.Set("api-key", p.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v2/identify/all?"+q.Encode(), nil)
	if err != nil {
		return Identification{}, domain.NewInternalError(fmt.Sprintf("build Pl@ntNet request: %v", err))
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return Identification{}, domain.NewInternalError(fmt.Sprintf("call Pl@ntNet: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Identification{}, domain.NewInternalError(fmt.Sprintf("read Pl@ntNet response: %v", err))
	}

	if resp.StatusCode == http.StatusNotFound {
		slog.Info("Pl@ntNet found no species", "image", req.ImageURL)
		return Identification{Kind: None}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Identification{}, upstreamError(p.Name(), resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var raw plantnetResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return Identification{}, domain.NewInternalError(fmt.Sprintf("parse Pl@ntNet response: %v", err))
	}
	return p.classify(raw)
}

func (p *Plantnet) classify(raw plantnetResponse) (Identification, error) {
	scores := make([]float64, len(raw.Results))
	for i, r := range raw.Results {
		scores[i] = r.Score
	}

	idx := firstAbove(scores, p.minScore)
	if idx < 0 {
		return Identification{Kind: BadScore}, nil
	}

	best := raw.Results[idx]
	var b strings.Builder
	fmt.Fprintf(&b, "Pl@ntNet identifie (à %s%%) %s", FormatScore(best.Score), best.Species.ScientificName)
	if best.Species.Family.ScientificName != "" {
		fmt.Fprintf(&b, " (fam. %s)", best.Species.Family.ScientificName)
	}
	if len(best.Species.CommonNames) > 0 {
		fmt.Fprintf(&b, ", noms communs : %s", strings.Join(best.Species.CommonNames, ", "))
	}

	ident := Identification{Kind: OK, ScoredResult: b.String()}
	if len(best.Images) > 0 && best.Images[0].URL.O != "" {
		ident.Illustration = &Illustration{
			URL:     best.Images[0].URL.O,
			Caption: best.Images[0].Citation,
		}
	}
	return ident, nil
}

// simulatedPlantnetResponse returns the canned provider payload for one of
// the fixed simulation cases.
func simulatedPlantnetResponse(simulateCase string) plantnetResponse {
	goodResult := plantnetResult{
		Score: 0.8509,
		Species: plantnetSpecies{
			ScientificName: "Pancratium SIMULATINIUM",
			Family:         plantnetFamily{ScientificName: "Amaryllidaceae"},
			CommonNames:    []string{"Lys de mer simulé"},
		},
	}

	switch simulateCase {
	case CaseGoodScoreImages:
		goodResult.Images = []plantnetImage{
			{
				URL:      plantnetImageURL{O: "https://bs.plantnet.org/image/o/simulatinium.jpg"},
				Citation: "Herbier simulé de Pl@ntNet",
			},
		}
		return plantnetResponse{Results: []plantnetResult{goodResult}}
	case CaseGoodScoreNoImage:
		return plantnetResponse{Results: []plantnetResult{goodResult}}
	case CaseBadScore:
		return plantnetResponse{Results: []plantnetResult{
			{
				Score: 0.1042,
				Species: plantnetSpecies{
					ScientificName: "Pancratium DUBIUM",
					Family:         plantnetFamily{ScientificName: "Amaryllidaceae"},
				},
			},
		}}
	default:
		return plantnetResponse{}
	}
}
