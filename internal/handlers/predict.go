package handlers

import (
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/example/carcino/internal/history"
	"github.com/example/carcino/internal/middleware"
	"github.com/example/carcino/internal/services"
)

// MaxImageSize is the largest accepted upload.
const MaxImageSize = 5 * 1024 * 1024

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/jpg":  true,
}

// PredictHandler forwards skin images to the classifier.
type PredictHandler struct {
	classifier *services.ClassifierClient
}

// NewPredictHandler constructs PredictHandler.
func NewPredictHandler(classifier *services.ClassifierClient) *PredictHandler {
	return &PredictHandler{classifier: classifier}
}

// Predict classifies the uploaded image and records the analysis in the
// medical history.
func (h *PredictHandler) Predict(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "image file is required")
	}
	if !imageTypes[fh.Header.Get(fiber.HeaderContentType)] {
		return fiber.NewError(fiber.StatusBadRequest, "Please upload a JPEG or PNG image.")
	}
	if fh.Size > MaxImageSize {
		return fiber.NewError(fiber.StatusBadRequest, "Please upload an image smaller than 5MB.")
	}

	file, err := fh.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not read image")
	}
	defer file.Close()

	prediction, err := h.classifier.Predict(c.UserContext(), fh.Filename, file, middleware.BearerToken(c))
	if err != nil {
		var upstream *services.UpstreamError
		if errors.As(err, &upstream) {
			return c.Status(upstream.Status).JSON(fiber.Map{"error": upstream.Detail})
		}
		log.Printf("[Predict] classifier call failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}

	if s := middleware.GetSession(c); s != nil {
		summary := fmt.Sprintf("Detected: %s - Confidence: %.2f%% - Suggest consulting dermatologist", prediction.Prediction, prediction.Confidence*100)
		_, err := s.History().Append(history.KindAnalysis, summary, history.AnalysisDetails{
			Prediction:         prediction.Prediction,
			Confidence:         prediction.Confidence,
			ClassProbabilities: prediction.ClassProbabilities,
			FileName:           fh.Filename,
		})
		if err != nil {
			log.Printf("[Predict] history append failed: %v", err)
		}
	}

	return c.JSON(prediction)
}
