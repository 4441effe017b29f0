package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	Convey("Given a fresh manager", t, func() {
		m := New()

		Convey("When migration progress is recorded", func() {
			m.MigrateRead(10)
			m.MigrateSkipped(2)
			m.MigrateBatch(7, 15*time.Millisecond)
			m.MigrateBatch(0, 5*time.Millisecond)
			m.MigrateRead(-1)

			Convey("Then counters reflect the totals", func() {
				So(testutil.ToFloat64(m.migrateRead), ShouldEqual, 10)
				So(testutil.ToFloat64(m.migrateSkipped), ShouldEqual, 2)
				So(testutil.ToFloat64(m.migrateInserted), ShouldEqual, 7)
			})
		})

		Convey("When attendance work is recorded", func() {
			m.Derived(time.Millisecond)
			m.AttachmentSkipped()
			m.BucketsWritten(3)

			Convey("Then the attendance counters move", func() {
				So(testutil.ToFloat64(m.derivations), ShouldEqual, 1)
				So(testutil.ToFloat64(m.attachmentsSkipped), ShouldEqual, 1)
				So(testutil.ToFloat64(m.bucketsWritten), ShouldEqual, 3)
			})
		})

		Convey("When the handler is scraped after an HTTP request", func() {
			m.HTTPRequest(http.MethodPost, 200, 2*time.Millisecond)

			rr := httptest.NewRecorder()
			m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			body, _ := io.ReadAll(rr.Body)

			Convey("Then the exposition contains namespaced series", func() {
				So(rr.Code, ShouldEqual, http.StatusOK)
				So(string(body), ShouldContainSubstring, `garden_http_requests_total{method="POST",status="200"} 1`)
				So(strings.Contains(string(body), "garden_migrate_documents_read_total"), ShouldBeTrue)
			})
		})
	})

	Convey("Given a nil manager", t, func() {
		var m *Manager

		Convey("Then every recorder is a no-op", func() {
			So(func() {
				m.MigrateRead(1)
				m.MigrateSkipped(1)
				m.MigrateBatch(1, time.Second)
				m.Derived(time.Second)
				m.AttachmentSkipped()
				m.BucketsWritten(1)
				m.HTTPRequest("GET", 200, time.Second)
			}, ShouldNotPanic)
			So(m.Registry(), ShouldBeNil)
		})

		Convey("Then the handler answers 404", func() {
			rr := httptest.NewRecorder()
			m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			So(rr.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestWithNamespace(t *testing.T) {
	Convey("A custom namespace prefixes series", t, func() {
		m := New(WithNamespace("garden_test"), WithHistogramBuckets([]float64{0.1, 1}))
		m.MigrateRead(1)
		n, err := testutil.GatherAndCount(m.Registry(), "garden_test_migrate_documents_read_total")
		So(err, ShouldBeNil)
		So(n, ShouldEqual, 1)
	})
}
