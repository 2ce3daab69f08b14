package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestOptions(t *testing.T) {
	Convey("Given metric options", t, func() {
		Convey("When constructing each option", func() {
			So(WithNamespace("ns"), ShouldNotBeNil)
			So(WithSubsystem("sub"), ShouldNotBeNil)
			So(WithHistogramBuckets([]float64{0.1, 1, 10}), ShouldNotBeNil)
			So(WithRegistry(prometheus.NewRegistry()), ShouldNotBeNil)
		})

		Convey("When empty values are supplied", func() {
			m := &Manager{namespace: "neurorace", subsystem: "refinery", buckets: prometheus.DefBuckets}
			WithNamespace("")(m)
			WithSubsystem("")(m)
			WithHistogramBuckets(nil)(m)
			WithRegistry(nil)(m)

			Convey("Then the defaults survive", func() {
				So(m.namespace, ShouldEqual, "neurorace")
				So(m.subsystem, ShouldEqual, "refinery")
				So(m.buckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestNewManager(t *testing.T) {
	Convey("Given a metrics manager", t, func() {
		Convey("When created with a fresh registry", func() {
			m := NewManager(WithRegistry(prometheus.NewRegistry()))

			Convey("Then all instruments are wired", func() {
				So(m, ShouldNotBeNil)
				So(m.sessionsProcessed, ShouldNotBeNil)
				So(m.pipelineDuration, ShouldNotBeNil)
				So(m.queueSize, ShouldNotBeNil)
				So(m.httpRequests, ShouldNotBeNil)
			})
		})

		Convey("When created with custom namespace and buckets", func() {
			m := NewManager(
				WithRegistry(prometheus.NewRegistry()),
				WithNamespace("custom"),
				WithSubsystem("pipeline"),
				WithHistogramBuckets([]float64{0.5, 5}),
			)

			Convey("Then the overrides are applied", func() {
				So(m.namespace, ShouldEqual, "custom")
				So(m.subsystem, ShouldEqual, "pipeline")
				So(m.buckets, ShouldResemble, []float64{0.5, 5})
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When the package helpers record", func() {
			So(func() {
				RecordSessionProcessed()
				RecordSessionFailed()
				RecordSessionPartial()
				RecordPipelineDuration(1.5)
				RecordMalformedRecord()
				RecordPlayerSkipped()
				RecordTriggerDuplicate()
				RecordStoreTxRetry()
				RecordStoreTxFailure()
				UpdateQueueSize(3)
				UpdateQueueCapacity(16)
				UpdateQueueUtilization(0.1875)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueReject()
				UpdateWorkerCount(4)
				RecordWorkerProcessingLatency(0.02)
				RecordWorkerError()
				RecordHTTPRequest("/triggers", "POST", "202")
				RecordHTTPRequestDuration("/triggers", "POST", "202", 12.5)
			}, ShouldNotPanic)
		})

		Convey("When the registry is fetched", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
