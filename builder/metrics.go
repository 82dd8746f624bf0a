package builder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Save outcome labels.
const (
	saveStatusOK         = "ok"
	saveStatusUpload     = "upload_failed"
	saveStatusSubmit     = "submit_failed"
	saveStatusValidation = "validation_failed"
	saveStatusSuperseded = "superseded"
)

var (
	savesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cms",
		Subsystem: "builder",
		Name:      "saves_total",
		Help:      "Save pipeline runs by outcome.",
	}, []string{"status"})

	imageUploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cms",
		Subsystem: "builder",
		Name:      "image_uploads_total",
		Help:      "Pending image uploads resolved during saves, by outcome.",
	}, []string{"status"})
)
