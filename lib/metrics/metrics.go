package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FramesPushed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stereoview_queue_frames_pushed_total",
		Help: "Total number of frames accepted by the queue",
	}, []string{"name"})
	FramesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stereoview_queue_frames_rejected_total",
		Help: "Total number of frames refused because the queue was full or the frame malformed",
	}, []string{"name"})
	FramesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stereoview_queue_frames_dropped_total",
		Help: "Total number of queued frames removed by drop or clear",
	}, []string{"name"})
	FramesDisplayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stereoview_queue_frames_displayed_total",
		Help: "Total number of frames swapped to the front",
	}, []string{"name"})
	UploadFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stereoview_queue_upload_failures_total",
		Help: "Total number of frames skipped because their upload failed",
	}, []string{"name"})
	BytesUploaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stereoview_queue_uploaded_bytes_total",
		Help: "Total number of pixel bytes uploaded to textures",
	}, []string{"name"})
	QueueLength = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "stereoview_queue_pending_frames",
		Help: "Number of frames waiting for display",
	}, []string{"name"})
	PushRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stereoview_source_push_retries_total",
		Help: "Total number of push attempts retried because the queue was full",
	}, []string{"name"})
)

type QueueMetrics struct {
	FramesPushed    prometheus.Counter
	FramesRejected  prometheus.Counter
	FramesDropped   prometheus.Counter
	FramesDisplayed prometheus.Counter
	UploadFailures  prometheus.Counter
	BytesUploaded   prometheus.Counter
	QueueLength     prometheus.Gauge
}

func NewQueueMetrics(name string) QueueMetrics {
	q := QueueMetrics{
		FramesPushed:    FramesPushed.WithLabelValues(name),
		FramesRejected:  FramesRejected.WithLabelValues(name),
		FramesDropped:   FramesDropped.WithLabelValues(name),
		FramesDisplayed: FramesDisplayed.WithLabelValues(name),
		UploadFailures:  UploadFailures.WithLabelValues(name),
		BytesUploaded:   BytesUploaded.WithLabelValues(name),
		QueueLength:     QueueLength.WithLabelValues(name),
	}
	q.FramesPushed.Add(0)
	q.FramesRejected.Add(0)
	q.FramesDropped.Add(0)
	q.FramesDisplayed.Add(0)
	q.UploadFailures.Add(0)
	q.BytesUploaded.Add(0)
	return q
}

// Handler should usually be mounted at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
