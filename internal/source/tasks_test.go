// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boonware/boonscroll/internal/models"
)

const tasksFixture = `tasks:
  - id: water-plants
    title: Water the plants
    due: 2026-08-24
    notes: The fern looks thirsty.
  - id: call-dentist
    title: Call the dentist
    due: 2026-08-26
  - id: plan-trip
    title: Plan the autumn trip
    due: 2026-09-15
  - id: shelf
    title: Fix the shelf
  - id: done-already
    title: Old chore
    due: 2026-08-01
    done: true
`

func newTestTasks(t *testing.T) *Tasks {
	tk := NewTasks(TasksConfig{Path: writeFixture(t, "tasks.yaml", tasksFixture)})
	tk.now = func() time.Time { return time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC) }
	return tk
}

func TestTasksFetchDueAndOverdue(t *testing.T) {
	tk := newTestTasks(t)

	res, err := tk.Fetch(context.Background(), FetchQuery{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	// Overdue first, then due today, then undated. The future task and
	// the completed one stay out.
	wantOrder := []string{"tasks:water-plants", "tasks:call-dentist", "tasks:shelf"}
	if len(res.Items) != len(wantOrder) {
		t.Fatalf("fetched %d items, want %d", len(res.Items), len(wantOrder))
	}
	for i, want := range wantOrder {
		if res.Items[i].ID != want {
			t.Errorf("position %d: %s, want %s", i, res.Items[i].ID, want)
		}
	}

	overdue := res.Items[0]
	if overdue.Priority != 2 {
		t.Errorf("overdue priority %d, want 2 days", overdue.Priority)
	}
	if got := overdue.Meta.GetString("status"); got != "overdue by 2d" {
		t.Errorf("status %q", got)
	}
	if overdue.Interaction == nil || overdue.Interaction.Kind != models.InteractionButtons {
		t.Fatalf("missing buttons interaction: %+v", overdue.Interaction)
	}
	if len(overdue.Interaction.Buttons) != 2 || overdue.Interaction.Buttons[0].Value != "done" {
		t.Errorf("buttons = %+v", overdue.Interaction.Buttons)
	}
}

func TestTasksHandleResponseDone(t *testing.T) {
	tk := newTestTasks(t)
	ctx := context.Background()

	result, err := tk.HandleResponse(ctx, "u", "call-dentist", "done", nil)
	if err != nil {
		t.Fatalf("HandleResponse: %v", err)
	}
	if result["action"] != "done" || result["task"] != "call-dentist" {
		t.Errorf("result = %v", result)
	}

	// The completion persisted: the task no longer surfaces.
	res, err := tk.Fetch(ctx, FetchQuery{})
	if err != nil {
		t.Fatalf("Fetch after done: %v", err)
	}
	for _, item := range res.Items {
		if item.ID == "tasks:call-dentist" {
			t.Fatal("completed task still surfaced")
		}
	}
}

func TestTasksHandleResponseSnooze(t *testing.T) {
	tk := newTestTasks(t)
	ctx := context.Background()

	result, err := tk.HandleResponse(ctx, "u", "water-plants", "snooze", nil)
	if err != nil {
		t.Fatalf("HandleResponse: %v", err)
	}
	if result["due"] != "2026-08-27" {
		t.Errorf("snoozed due = %v, want tomorrow", result["due"])
	}

	res, err := tk.Fetch(ctx, FetchQuery{})
	if err != nil {
		t.Fatalf("Fetch after snooze: %v", err)
	}
	for _, item := range res.Items {
		if item.ID == "tasks:water-plants" {
			t.Fatal("snoozed task still surfaced today")
		}
	}
}

func TestTasksHandleResponseErrors(t *testing.T) {
	tk := newTestTasks(t)
	ctx := context.Background()

	if _, err := tk.HandleResponse(ctx, "u", "nosuch", "done", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown task error = %v, want ErrNotFound", err)
	}
	if _, err := tk.HandleResponse(ctx, "u", "shelf", "explode", nil); err == nil {
		t.Error("unknown response accepted")
	}
}
