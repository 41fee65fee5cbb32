package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCLIParsing(t *testing.T) {
	Convey("Given the smoke CLI", t, func() {
		var cli CLI
		parser, err := kong.New(&cli, kong.Name("smoke"))
		So(err, ShouldBeNil)

		Convey("When parsed without flags", func() {
			_, err := parser.Parse(nil)

			Convey("Then the defaults apply", func() {
				So(err, ShouldBeNil)
				So(cli.URL, ShouldEqual, "http://localhost:3000")
				So(cli.Environments, ShouldResemble, []string{"dev", "uat", "prod"})
				So(cli.Timeout, ShouldEqual, 30*time.Second)
				So(cli.Workers, ShouldEqual, 4)
			})
		})

		Convey("When environments and flags are given", func() {
			_, err := parser.Parse([]string{"-u", "http://console:8080", "--env", "dev,sandbox", "--skip-toggle", "-w", "2"})
			So(err, ShouldBeNil)
			So(cli.URL, ShouldEqual, "http://console:8080")
			So(cli.Environments, ShouldResemble, []string{"dev", "sandbox"})
			So(cli.SkipToggle, ShouldBeTrue)
			So(cli.Workers, ShouldEqual, 2)
		})

		Convey("When the log format is unknown", func() {
			_, err := parser.Parse([]string{"--log-format", "xml"})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestRunExitCodes(t *testing.T) {
	Convey("Given a console that is down", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		Convey("Then run aborts with exit code 2", func() {
			var out bytes.Buffer
			code := run(CLI{URL: srv.URL, Environments: []string{"dev"}, Timeout: time.Second, Deadline: 5 * time.Second, Workers: 1, LogFormat: "text"}, &out)
			So(code, ShouldEqual, 2)
			So(out.Len(), ShouldEqual, 0)
		})
	})

	Convey("Given a console answering every route with an empty object", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		Convey("Then run reports failures with exit code 1", func() {
			var out bytes.Buffer
			code := run(CLI{URL: srv.URL, Environments: []string{"dev"}, Timeout: time.Second, Deadline: 5 * time.Second, Workers: 2, SkipToggle: true, LogFormat: "text"}, &out)
			So(code, ShouldEqual, 1)
			So(out.String(), ShouldContainSubstring, "failed in")
		})
	})
}
