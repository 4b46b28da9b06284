package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	LoginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "memeboard", Name: "login_attempts_total", Help: "Number of login attempts by result."},
		[]string{"result"},
	)
	VotesApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "memeboard", Name: "votes_applied_total", Help: "Number of applied vote actions."},
		[]string{"action"},
	)
	MemesUploaded = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "memeboard", Name: "memes_uploaded_total", Help: "Number of memes uploaded."},
	)
	MemesDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "memeboard", Name: "memes_deleted_total", Help: "Number of memes deleted by admins."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(LoginAttempts)
	reg.MustRegister(VotesApplied)
	reg.MustRegister(MemesUploaded)
	reg.MustRegister(MemesDeleted)
}
