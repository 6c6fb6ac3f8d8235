package cron

import (
	"context"
	"testing"
)

type namedJob struct {
	name string
	err  error
	runs int
	wait bool
}

func (j *namedJob) Name() string { return j.name }

func (j *namedJob) Run(ctx context.Context) error {
	j.runs++
	if j.wait {
		<-ctx.Done()
		return ctx.Err()
	}
	return j.err
}

func TestRegistryKeepsOrderAndRejectsDuplicates(t *testing.T) {
	registry, err := NewRegistry(&namedJob{name: "outbox-retention"}, &namedJob{name: "dlq-report"})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	names := registry.Names()
	if len(names) != 2 || names[0] != "outbox-retention" || names[1] != "dlq-report" {
		t.Fatalf("unexpected names %v", names)
	}
	if err := registry.Register(&namedJob{name: "outbox-retention"}); err == nil {
		t.Fatal("expected duplicate name to fail")
	}
	if err := registry.Register(&namedJob{name: "  "}); err == nil {
		t.Fatal("expected blank name to fail")
	}
	if err := registry.Register(nil); err == nil {
		t.Fatal("expected nil job to fail")
	}

	jobs := registry.Jobs()
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatal("Jobs must return a copy")
	}
}
