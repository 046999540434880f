package main

import (
	"fmt"
	"io"

	"netsyncstat/pkg/packet"
	"netsyncstat/pkg/report"
	"netsyncstat/pkg/stats"
)

type progressFunc func(pkt *packet.RecvPacket, diff int64, diffs *stats.Stats[int64])

func newProgress(mode string, w io.Writer) progressFunc {
	switch mode {
	case ModeQuiet:
		return func(*packet.RecvPacket, int64, *stats.Stats[int64]) {}
	case ModeStats:
		return func(_ *packet.RecvPacket, diff int64, diffs *stats.Stats[int64]) {
			fmt.Fprintf(w, "%5d sampl %20d diff %20.1f diffM %15.1f diffSD\n",
				diffs.SampleCount(), diff, diffs.Mean(), diffs.StdDev())
		}
	default:
		return func(pkt *packet.RecvPacket, diff int64, _ *stats.Stats[int64]) {
			fmt.Fprintf(w, "%d bytes: '%s'\ntime diff = %d\n", len(pkt.Payload), pkt.Payload, diff)
		}
	}
}

// finalize prints the summary and persists the raw samples. Problems with the
// output file are logged and never fail the run.
func finalize(conf Config, rt Runtime, diffs *stats.Stats[int64]) error {
	samples := diffs.Samples()
	if len(samples) == 0 {
		rt.Log.Warn("no samples collected")
	} else {
		if err := report.WriteSummary(rt.Stdout, diffs.Mean(), diffs.StdDev()); err != nil {
			return fmt.Errorf("summary: %w", err)
		}
		rt.Log.Infof("distribution: %v", report.Distribute(samples))
	}

	out, err := report.OpenOutput(conf.Output)
	if err != nil {
		rt.Log.Warnf("raw samples discarded: %v", err)
	}
	if err = report.WriteSamples(out, samples); err != nil {
		rt.Log.Warnf("write %s: %v", conf.Output, err)
	}
	if err = out.Close(); err != nil {
		rt.Log.Warnf("close %s: %v", conf.Output, err)
	}
	return nil
}
