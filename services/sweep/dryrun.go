package main

import (
	"context"
	"strconv"

	"github.com/priyanshu1258/Hackathon/services/api/reading"
)

type printer interface {
	Printf(format string, v ...any)
}

// dryRunGateway prints what a sweep would write instead of writing it.
type dryRunGateway struct {
	out printer
}

func (d dryRunGateway) Append(_ context.Context, c reading.Category, b reading.Building, r reading.Reading) (string, error) {
	d.out.Printf("dry-run: would insert category=%s building=%s time=%s value=%s %s",
		c, b, r.Time, strconv.FormatFloat(r.Value, 'f', -1, 64), r.Unit)
	return "dry-run", nil
}

func (d dryRunGateway) SetLatest(context.Context, reading.Category, reading.Building, reading.Snapshot) error {
	return nil
}
