package api

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	apierrors "github.com/dmribeiro/geminiweb/internal/errors"
	"github.com/dmribeiro/geminiweb/internal/models"
)

// cardContentPattern matches placeholder text that points at card content
var cardContentPattern = regexp.MustCompile(`^http://googleusercontent\.com/card_content/\d+`)

// ParseResponse decodes the streamed generate payload into a ModelOutput.
//
// The stream carries framing garbage before the first JSON line; the
// shape checks here mirror an unstable wire contract, so any missing
// structure is a ParseError rather than a silent empty result.
func ParseResponse(body []byte, modelName string) (*models.ModelOutput, error) {
	var jsonLine string
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if gjson.Valid(line) {
			jsonLine = line
			break
		}
	}

	if jsonLine == "" {
		return nil, apierrors.NewParseError("no valid JSON found in response", "")
	}

	parsed := gjson.Parse(jsonLine)

	// Short error format: [["wrb.fr",null,null,null,null,[3]],...]
	altErrorCode := parsed.Get(PathAltErrorCode)
	if altErrorCode.Exists() && !altErrorCode.IsArray() && altErrorCode.Int() > 0 {
		return nil, apierrors.HandleErrorCode(
			apierrors.ErrorCode(altErrorCode.Int()), models.EndpointGenerate, modelName)
	}

	// The candidate body is a JSON string nested at [i][2]; its index
	// shifts between response variants, so probe each part.
	var responseBody gjson.Result
	parsed.ForEach(func(_, value gjson.Result) bool {
		bodyData := value.Get(PathBody)
		if !bodyData.Exists() {
			return true
		}

		bodyJSON := gjson.Parse(bodyData.String())
		if bodyJSON.Get(PathCandList).Exists() {
			responseBody = bodyJSON
			return false
		}
		return true
	})

	if !responseBody.Exists() {
		if errorCode := parsed.Get(PathErrorCode); errorCode.Exists() {
			return nil, apierrors.HandleErrorCode(
				apierrors.ErrorCode(errorCode.Int()), models.EndpointGenerate, modelName)
		}
		return nil, apierrors.NewParseError("no response body found", PathBody)
	}

	var metadata []string
	if metadataResult := responseBody.Get(PathMetadata); metadataResult.IsArray() {
		metadataResult.ForEach(func(_, v gjson.Result) bool {
			metadata = append(metadata, v.String())
			return true
		})
	}

	candidateList := responseBody.Get(PathCandList)
	if !candidateList.Exists() || !candidateList.IsArray() {
		return nil, apierrors.NewParseError("no candidates found", PathCandList)
	}

	var candidates []models.Candidate
	candidateList.ForEach(func(_, candValue gjson.Result) bool {
		if cand, ok := parseCandidate(candValue); ok {
			candidates = append(candidates, cand)
		}
		return true
	})

	if len(candidates) == 0 {
		return nil, apierrors.NewParseError("no valid candidates found", PathCandList)
	}

	return &models.ModelOutput{
		Metadata:   metadata,
		Candidates: candidates,
		Chosen:     0,
		Raw:        responseBody.Raw,
	}, nil
}

// parseCandidate extracts one candidate; candidates without an RCID are skipped
func parseCandidate(candValue gjson.Result) (models.Candidate, bool) {
	rcid := candValue.Get(PathCandRCID).String()
	if rcid == "" {
		return models.Candidate{}, false
	}

	text := candValue.Get(PathCandText).String()

	// Card-content placeholder URLs carry the real text at an alternate offset
	if cardContentPattern.MatchString(text) {
		if altText := candValue.Get(PathCandTextAlt).String(); altText != "" {
			text = altText
		}
	}

	return models.Candidate{
		RCID:            rcid,
		Text:            text,
		Thoughts:        candValue.Get(PathCandThoughts).String(),
		WebImages:       parseWebImages(candValue),
		GeneratedImages: parseGeneratedImages(candValue),
	}, true
}

func parseWebImages(candValue gjson.Result) []models.WebImage {
	var webImages []models.WebImage
	candValue.Get(PathCandWebImages).ForEach(func(_, imgValue gjson.Result) bool {
		imgURL := imgValue.Get(PathWebImgURL).String()
		if imgURL == "" {
			return true
		}
		webImages = append(webImages, models.WebImage{
			URL:   imgURL,
			Title: imgValue.Get(PathWebImgTitle).String(),
			Alt:   imgValue.Get(PathWebImgAlt).String(),
		})
		return true
	})
	return webImages
}

func parseGeneratedImages(candValue gjson.Result) []models.GeneratedImage {
	var generatedImages []models.GeneratedImage
	candValue.Get(PathCandGenImages).ForEach(func(imgIdx, imgValue gjson.Result) bool {
		imgURL := imgValue.Get(PathGenImgURL).String()
		if imgURL == "" {
			return true
		}

		title := "[Generated Image]"
		if imgNum := imgValue.Get(PathGenImgNum).String(); imgNum != "" {
			title = fmt.Sprintf("[Generated Image %s]", imgNum)
		}

		alt := ""
		if alts := imgValue.Get(PathGenImgAlts); alts.IsArray() {
			if altVal := alts.Get(fmt.Sprintf("%d", imgIdx.Int())); altVal.Exists() {
				alt = altVal.String()
			} else if altVal := alts.Get("0"); altVal.Exists() {
				alt = altVal.String()
			}
		}

		generatedImages = append(generatedImages, models.GeneratedImage{
			URL:   imgURL,
			Title: title,
			Alt:   alt,
		})
		return true
	})
	return generatedImages
}
