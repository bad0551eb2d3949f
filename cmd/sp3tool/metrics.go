// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.19
//

package main

import (
	"github.com/prometheus/client_golang/prometheus"

	m "github.com/mkhts/sp3"
)

// Parse statistics per input, labelled by file name
type collector struct {
	reg *prometheus.Registry

	lines      *prometheus.GaugeVec
	records    *prometheus.GaugeVec
	skipped    *prometheus.GaugeVec
	entries    *prometheus.GaugeVec
	epochs     *prometheus.GaugeVec
	satellites *prometheus.GaugeVec
	conflicts  *prometheus.GaugeVec
}

func newCollector() *collector {
	gauge := func(name, help string, labels ...string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "sp3",
			Name:      name,
			Help:      help,
		}, append([]string{"file"}, labels...))
	}
	c := &collector{
		reg:        prometheus.NewRegistry(),
		lines:      gauge("lines", "Input lines read."),
		records:    gauge("records", "Decoded records by kind.", "kind"),
		skipped:    gauge("skipped_records", "Records dropped while parsing, by reason.", "reason"),
		entries:    gauge("entries", "Unified (epoch, satellite) entries."),
		epochs:     gauge("epochs", "Distinct epochs."),
		satellites: gauge("satellites", "Satellites in the header."),
		conflicts:  gauge("merge_conflicts", "Keys found in both inputs of a merge."),
	}
	c.reg.MustRegister(c.lines, c.records, c.skipped, c.entries, c.epochs, c.satellites, c.conflicts)
	return c
}

func (c *collector) observe(name string, ds *m.SP3) {
	st := ds.Stats
	c.lines.WithLabelValues(name).Set(float64(st.Lines))
	c.records.WithLabelValues(name, "position").Set(float64(st.PositionRecords))
	c.records.WithLabelValues(name, "velocity").Set(float64(st.VelocityRecords))
	c.skipped.WithLabelValues(name, "short").Set(float64(st.ShortRecords))
	c.skipped.WithLabelValues(name, "zero").Set(float64(st.ZeroDiscarded))
	c.entries.WithLabelValues(name).Set(float64(ds.Len()))
	c.epochs.WithLabelValues(name).Set(float64(ds.TotalEpochs()))
	c.satellites.WithLabelValues(name).Set(float64(len(ds.Header.Satellites)))
	c.conflicts.WithLabelValues(name).Set(float64(st.Conflicts))
}

// Write in the node exporter textfile format
func (c *collector) write(path string) error {
	return prometheus.WriteToTextfile(path, c.reg)
}
