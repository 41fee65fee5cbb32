package config_test

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"
	"github.com/tgsai/aiops-console/internal/config"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":3000")
			convey.So(cfg.Environments, convey.ShouldResemble, []string{"dev", "uat", "prod"})
			convey.So(cfg.DefaultEnvironment, convey.ShouldEqual, "dev")
			convey.So(cfg.ModelCacheTTLSeconds, convey.ShouldEqual, 3600)
			convey.So(cfg.ModelCacheRetrySeconds, convey.ShouldEqual, 60)
			convey.So(cfg.StoreDriver, convey.ShouldEqual, config.StoreMemory)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then HasEnvironment should be case insensitive", func() {
			convey.So(cfg.HasEnvironment("PROD"), convey.ShouldBeTrue)
			convey.So(cfg.HasEnvironment("qa"), convey.ShouldBeFalse)
		})
	})
}
