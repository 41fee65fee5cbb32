package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSiteHandler(t *testing.T) {
	Convey("Given a site handler", t, func() {
		ctx := context.Background()
		mux := http.NewServeMux()

		Convey("When registering the site handler", func() {
			So(Register(ctx, mux), ShouldBeNil)

			Convey("Then it should serve the landing page at /", func() {
				req := httptest.NewRequest("GET", "/", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
				So(w.Body.String(), ShouldContainSubstring, "TGSAIOps Console")
				So(w.Body.String(), ShouldContainSubstring, `href="/api-docs"`)
			})

			Convey("And it should answer 404 for unknown paths", func() {
				for _, path := range []string{"/docs", "/index.html", "/api/unknown", "/static/index.html"} {
					req := httptest.NewRequest("GET", path, nil)
					w := httptest.NewRecorder()
					mux.ServeHTTP(w, req)
					So(w.Code, ShouldEqual, http.StatusNotFound)
				}
			})

			Convey("And it should reject writes to /", func() {
				req := httptest.NewRequest("POST", "/", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
				So(w.Header().Get("Allow"), ShouldEqual, "GET, HEAD")
			})
		})
	})
}

func TestIndex(t *testing.T) {
	Convey("Given the embedded static files", t, func() {
		Convey("Then the landing page links every console section", func() {
			index, err := Index()
			So(err, ShouldBeNil)
			for _, link := range []string{"/api/advisor", "/api/anomalies", "/api/cost", "/api/security", "/api/discover", "/api/stacks", "/api/bedrock-models", "/api/sagemaker/endpoints", "/openapi.yaml"} {
				So(string(index), ShouldContainSubstring, link)
			}
		})
	})
}
