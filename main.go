package main

import (
	"flag"
	"fmt"
	"io/ioutil"

	"github.com/bitmark-inc/logger"
	"github.com/boltdb/bolt"
	"github.com/gin-gonic/gin"
	"github.com/hashicorp/hcl"

	"github.com/reviewmark/review-attest/attest"
)

var (
	cfg       *config
	db        *bolt.DB
	authority *attest.Authority
	log       *logger.L
)

type config struct {
	Port     int    `hcl:"port"`
	DataDir  string `hcl:"datadir"`
	Admin    string `hcl:"admin"`
	Mode     string `hcl:"mode"`
	LogLevel string `hcl:"loglevel"`
}

func readConfig(confpath string) *config {
	var cfg config

	dat, err := ioutil.ReadFile(confpath)
	if err != nil {
		panic(fmt.Sprintf("unable to read the configuration: %v", err))
	}

	if err = hcl.Unmarshal(dat, &cfg); nil != err {
		panic(fmt.Sprintf("unable to parse the configuration: %v", err))
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Admin == "" {
		panic("the admin account number must be configured")
	}

	return &cfg
}

func initLogger(dir, level string) {
	err := logger.Initialise(logger.Configuration{
		Directory: dir,
		File:      "review-attest.log",
		Size:      1048576,
		Count:     10,
		Console:   true,
		Levels: map[string]string{
			logger.DefaultTag: level,
		},
	})
	if err != nil {
		panic(fmt.Sprintf("unable to init the logger: %v", err))
	}
}

func main() {
	var confpath string
	flag.StringVar(&confpath, "conf", "", "Specify configuration file")
	flag.Parse()

	cfg = readConfig(confpath)

	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	initLogger(cfg.DataDir, cfg.LogLevel)
	log = logger.New("review-attest")

	db = openDB(fmt.Sprintf("%s/review-attest.db", cfg.DataDir))

	var err error
	authority, err = attest.Open(db, cfg.Admin)
	if err != nil {
		panic(fmt.Sprintf("unable to init the issuing authority: %v", err))
	}

	r := gin.Default()
	registerRoutes(r)

	log.Infof("listening on :%d", cfg.Port)
	r.Run(fmt.Sprintf(":%d", cfg.Port))
}

func registerRoutes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) { c.Status(200) })
	r.GET("/collection", handleCollection())

	r.POST("/accounts", handleAccountRegistration())

	r.POST("/attestations", requireSignature("submitAttestation"), handleSubmit())
	r.POST("/attestations/sponsored", requireSignature("sponsorAttestation"), handleSponsoredSubmit())
	r.DELETE("/attestations/:digest", requireSignature("deleteAttestation", "digest"), handleDelete())
	r.DELETE("/assets/:assetId", requireSignature("deleteAsset", "assetId"), handleDeleteAsset())

	r.GET("/attestations/count", handleCount())
	r.GET("/attestations/:digest", handleLookup())
	r.GET("/events/submissions", handleSubmissionEvents())
	r.GET("/events/deletions", handleDeletionEvents())
}
