package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimal = `
instruments:
  USD:
    series: TP.DK.USD.S.YTL
`

func TestParseDefaults(t *testing.T) {
	c, err := Parse([]byte(minimal))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Server.Port != 5000 {
		t.Fatalf("port=%d", c.Server.Port)
	}
	if c.Forecast.DailySeason != 30 || c.Forecast.MonthlySeason != 12 {
		t.Fatalf("seasons=%d/%d", c.Forecast.DailySeason, c.Forecast.MonthlySeason)
	}
	if c.Forecast.Confidence != 0.95 {
		t.Fatalf("confidence=%v", c.Forecast.Confidence)
	}
	if c.Location().String() != "Europe/Istanbul" {
		t.Fatalf("location=%s", c.Location())
	}
	if c.Snapshot.Interval != 0 {
		t.Fatalf("scheduler should be off by default")
	}
}

func TestValidateErrors(t *testing.T) {
	cases := map[string]string{
		"no instruments": `timezone: UTC`,
		"missing series": "instruments:\n  USD:\n    column: USD_Kuru\n",
		"bad confidence": minimal + "forecast:\n  confidence: 1.5\n",
		"bad timezone":   minimal + "timezone: Mars/Olympus\n",
		"unknown job instrument": minimal + `snapshot:
  jobs:
    - name: currency
      file: tahmin.json
      frequency: daily
      horizon: 90
      start: "2021-01-01"
      instruments: [GBP]
`,
		"bad frequency": minimal + `snapshot:
  jobs:
    - name: currency
      file: tahmin.json
      frequency: weekly
      horizon: 90
      start: "2021-01-01"
`,
		"kafka without brokers": minimal + "kafka:\n  enabled: true\n",
	}
	for name, doc := range cases {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(minimal), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("EVDS_API_KEY", "secret")
	t.Setenv("SERVER_PORT", "8088")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.EVDS.APIKey != "secret" {
		t.Fatalf("api key not applied")
	}
	if c.Server.Port != 8088 {
		t.Fatalf("port=%d", c.Server.Port)
	}
	if !c.Kafka.Enabled || strings.Join(c.Kafka.Brokers, ",") != "a:9092,b:9092" {
		t.Fatalf("kafka=%v %v", c.Kafka.Enabled, c.Kafka.Brokers)
	}
}

func TestShippedConfig(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	if err != nil {
		t.Fatalf("load shipped config: %v", err)
	}
	if len(c.Snapshot.Jobs) != 2 {
		t.Fatalf("jobs=%d", len(c.Snapshot.Jobs))
	}
	if c.Instruments["TUFE"].Label != "TÜFE" {
		t.Fatalf("label=%q", c.Instruments["TUFE"].Label)
	}
	if c.Snapshot.Interval != 24*time.Hour {
		t.Fatalf("interval=%s", c.Snapshot.Interval)
	}
}
