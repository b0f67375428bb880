package history

import "github.com/fakeyudi/cropscan/internal/api"

// AdviceFallback is returned for disease labels without a mapped treatment.
const AdviceFallback = "Consult with a local agricultural expert for specific treatment."

// treatments maps known disease labels to treatment recommendations.
var treatments = map[string]string{
	"Early Blight":       "Apply copper-based fungicide every 7-10 days. Remove infected leaves.",
	"Late Blight":        "Use systemic fungicides. Ensure proper air circulation.",
	"Powdery Mildew":     "Apply sulfur-based fungicide. Increase plant spacing.",
	"Black_rot":          "Apply fungicides and remove infected berries. Maintain good air circulation.",
	"Esca":               "Prune affected areas and apply fungicides. Improve vineyard management.",
	"Leaf_blight":        "Remove infected leaves and apply appropriate fungicides.",
	"Healthy":            "Continue regular monitoring and maintain good practices.",
	"Bacterial Spot":     "Use copper-based bactericides. Avoid overhead watering.",
	"Septoria Leaf Spot": "Apply fungicides containing chlorothalonil or mancozeb.",
	"Anthracnose":        "Use fungicides with active ingredients like azoxystrobin.",
}

// Advice returns the treatment recommendation for a disease label, falling
// back to AdviceFallback for unknown labels.
func Advice(disease string) string {
	if t, ok := treatments[disease]; ok {
		return t
	}
	return AdviceFallback
}

// LastDetection is the most recent detection annotated with treatment advice.
type LastDetection struct {
	Disease    string
	Crop       string
	Confidence float64
	Timestamp  string
	Treatment  string
}

// LastDetectionAdvice derives advice from the most recent record. The record
// collection is most-recent-first as delivered by the service; it is never
// re-sorted here.
func LastDetectionAdvice(records []api.HistoryRecord) (LastDetection, bool) {
	if len(records) == 0 {
		return LastDetection{}, false
	}
	r := records[0]

	disease := r.Disease
	if disease == "" {
		disease = "Unknown"
	}
	crop := r.Crop
	if crop == "" {
		crop = "Unknown Crop"
	}
	ts := r.Timestamp
	if ts == "" {
		ts = r.CreatedAt
	}
	return LastDetection{
		Disease:    disease,
		Crop:       crop,
		Confidence: r.Confidence,
		Timestamp:  ts,
		Treatment:  Advice(r.Disease),
	}, true
}
