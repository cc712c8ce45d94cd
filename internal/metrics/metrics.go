// Package metrics exposes the service's prometheus collectors. The session
// counter replaces what used to be a global generation counter kept only for
// periodic logging; scrape it instead.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsGenerated counts QR sessions minted per course.
	SessionsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qrollcall_sessions_generated_total",
		Help: "Attendance sessions generated, by course code.",
	}, []string{"course"})

	// Marks counts attendance mark attempts by outcome.
	Marks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qrollcall_marks_total",
		Help: "Attendance mark attempts, by outcome.",
	}, []string{"outcome"})

	// Logins counts login attempts by outcome.
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qrollcall_logins_total",
		Help: "Login attempts, by outcome.",
	}, []string{"outcome"})
)
