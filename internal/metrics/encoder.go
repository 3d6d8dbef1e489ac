// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/autobrr/rtorrent-exporter/internal/metrics/collector"
)

// ContentType is the media type of an encoded snapshot.
const ContentType = "application/openmetrics-text; version=1.0.0; charset=utf-8"

// RenderError reports a snapshot that could not be produced. No partial
// output accompanies it.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render metrics: %v", e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

var helpEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`, `"`, `\"`)

// Encoder renders one gather as OpenMetrics text, one family per provider in
// registry order.
type Encoder struct {
	catalog   *collector.Registry
	collector *collector.TorrentCollector
}

func NewEncoder(catalog *collector.Registry, c *collector.TorrentCollector) *Encoder {
	return &Encoder{
		catalog:   catalog,
		collector: c,
	}
}

// recorder keeps the exact values of the pass it forwards. Gather returns
// only after Collect has finished, so samples is safe to read afterwards.
type recorder struct {
	*collector.TorrentCollector
	samples []collector.Sample
}

func (r *recorder) Collect(ch chan<- prometheus.Metric) {
	r.samples = r.CollectSamples(ch)
}

// Encode runs a full collection pass and serializes it. The pass is aborted
// by the first provider error.
func (e *Encoder) Encode() ([]byte, error) {
	rec := &recorder{TorrentCollector: e.collector}
	gatherer := prometheus.NewRegistry()
	if err := gatherer.Register(rec); err != nil {
		return nil, &RenderError{Err: err}
	}

	families, err := gatherer.Gather()
	if err != nil {
		return nil, &RenderError{Err: err}
	}

	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, mf := range families {
		byName[mf.GetName()] = mf
	}
	values := make(map[string]int64, len(rec.samples))
	for _, s := range rec.samples {
		values[s.Name] = s.Value
	}

	var buf bytes.Buffer
	for _, p := range e.catalog.Entries() {
		mf, ok := byName[p.Name]
		value, recorded := values[p.Name]
		if !ok || !recorded || len(mf.GetMetric()) != 1 {
			return nil, &RenderError{Err: errors.Errorf("metric %s was not collected", p.Name)}
		}
		if mf.GetType() != familyType(p.Kind) {
			return nil, &RenderError{Err: errors.Errorf("metric %s was collected as %s, want %s", p.Name, mf.GetType(), p.Kind)}
		}

		if err := writeFamily(&buf, p.Descriptor, value); err != nil {
			return nil, &RenderError{Err: err}
		}
	}
	buf.WriteString("# EOF\n")

	return buf.Bytes(), nil
}

func familyType(k collector.Kind) dto.MetricType {
	if k == collector.KindCounter {
		return dto.MetricType_COUNTER
	}
	return dto.MetricType_GAUGE
}

func writeFamily(buf *bytes.Buffer, d collector.Descriptor, value int64) error {
	family, sample := d.Name, d.Name

	switch d.Kind {
	case collector.KindCounter:
		family = strings.TrimSuffix(d.Name, "_total")
		sample = family + "_total"
		if value < 0 {
			return errors.Errorf("counter %s has negative value %d", d.Name, value)
		}
	case collector.KindGauge:
	default:
		return errors.Errorf("metric %s has unsupported kind %s", d.Name, d.Kind)
	}

	fmt.Fprintf(buf, "# TYPE %s %s\n", family, d.Kind)
	fmt.Fprintf(buf, "# HELP %s %s\n", family, helpEscaper.Replace(d.Help))
	fmt.Fprintf(buf, "%s %s\n", sample, strconv.FormatInt(value, 10))

	return nil
}
