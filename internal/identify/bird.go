package identify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/maelig/identibot/internal/domain"
)

// Bird identifies birds through an image-classifier API. Unlike Pl@ntNet
// the classifier always answers with a ranked list, so the outcome union is
// only OK or BadScore; an upstream 404 is a transient unavailability.
type Bird struct {
	apiKey     string
	baseURL    string
	minScore   float64
	ref        *SpeciesRef
	httpClient *http.Client
}

// BirdConfig holds configuration for the bird classifier client.
type BirdConfig struct {
	APIKey   string
	BaseURL  string
	MinScore float64
	Ref      *SpeciesRef // optional enrichment source
}

// NewBird creates a new bird classifier client.
func NewBird(cfg BirdConfig) *Bird {
	return &Bird{
		apiKey:   cfg.APIKey,
		baseURL:  cfg.BaseURL,
		minScore: cfg.MinScore,
		ref:      cfg.Ref,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name returns the provider name.
func (b *Bird) Name() string {
	return "BirdID"
}

// MinScore returns the minimal usable score ratio.
func (b *Bird) MinScore() float64 {
	return b.minScore
}

type birdIdentifyRequest struct {
	ImageURL string `json:"imageUrl"`
}

// birdResponse is the classifier payload; results arrive best-first.
type birdResponse struct {
	Results []birdResult `json:"results"`
}

type birdResult struct {
	Score          float64  `json:"score"`
	ScientificName string   `json:"scientificName"`
	Genus          string   `json:"genus"`
	Family         string   `json:"family"`
	CommonNames    []string `json:"commonNames"`
	ImageURL       string   `json:"imageUrl"`
}

// Identify submits the image URL to the classifier and classifies the
// response against the minimal score.
func (b *Bird) Identify(ctx context.Context, req Request) (Identification, error) {
	if req.DoSimulate {
		return b.classify(ctx, simulatedBirdResponse(req.SimulateCase))
	}

	payload, err := json.Marshal(birdIdentifyRequest{ImageURL: req.ImageURL})
	if err != nil {
		return Identification{}, domain.NewInternalError(fmt.Sprintf("marshal bird request: %v", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/identify", bytes.NewReader(payload))
	if err != nil {
		return Identification{}, domain.NewInternalError(fmt.Sprintf("build bird request: %v", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return Identification{}, domain.NewInternalError(fmt.Sprintf("call bird classifier: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Identification{}, domain.NewInternalError(fmt.Sprintf("read bird response: %v", err))
	}

	if resp.StatusCode != http.StatusOK {
		return Identification{}, upstreamError(b.Name(), resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var raw birdResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return Identification{}, domain.NewInternalError(fmt.Sprintf("parse bird response: %v", err))
	}
	return b.classify(ctx, raw)
}

func (b *Bird) classify(ctx context.Context, raw birdResponse) (Identification, error) {
	scores := make([]float64, len(raw.Results))
	for i, r := range raw.Results {
		scores[i] = r.Score
	}

	idx := firstAbove(scores, b.minScore)
	if idx < 0 {
		return Identification{Kind: BadScore}, nil
	}

	best := raw.Results[idx]
	var sb strings.Builder
	fmt.Fprintf(&sb, "(à %s%%) %s", FormatScore(best.Score), best.ScientificName)
	if best.Genus != "" {
		fmt.Fprintf(&sb, " genus:%s", best.Genus)
	}
	if best.Family != "" {
		fmt.Fprintf(&sb, " (fam. %s)", best.Family)
	}
	if len(best.CommonNames) > 0 {
		fmt.Fprintf(&sb, " com. %s", strings.Join(best.CommonNames, ", "))
	}

	// Enrichment is best-effort: a resolvable species page becomes an
	// extra link, anything else is silently skipped.
	if b.ref != nil {
		if link := b.ref.SpeciesLink(ctx, best.ScientificName); link != "" {
			fmt.Fprintf(&sb, "\n%s", link)
		}
	}

	ident := Identification{Kind: OK, ScoredResult: sb.String()}
	if best.ImageURL != "" {
		ident.Illustration = &Illustration{
			URL:     best.ImageURL,
			Caption: best.ScientificName,
		}
	}
	return ident, nil
}

// simulatedBirdResponse returns the canned classifier payload for one of
// the fixed simulation cases.
func simulatedBirdResponse(simulateCase string) birdResponse {
	goodResult := birdResult{
		Score:          0.9274,
		ScientificName: "Haliaeetus leucocephalus",
		Genus:          "Haliaeetus",
		Family:         "Accipitridae",
		CommonNames:    []string{"Bald Eagle"},
	}

	switch simulateCase {
	case CaseGoodScoreImages:
		goodResult.ImageURL = "https://cdn.birdid.example/haliaeetus-leucocephalus.jpg"
		return birdResponse{Results: []birdResult{goodResult}}
	case CaseGoodScoreNoImage:
		return birdResponse{Results: []birdResult{goodResult}}
	case CaseBadScore:
		return birdResponse{Results: []birdResult{
			{
				Score:          0.3127,
				ScientificName: "Milvus migrans",
				Genus:          "Milvus",
				Family:         "Accipitridae",
				CommonNames:    []string{"Black Kite"},
			},
		}}
	default:
		return birdResponse{}
	}
}
