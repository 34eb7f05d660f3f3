package model

import "testing"

// TestStatusTransitions verifies the crawl job state machine.
func TestStatusTransitions(t *testing.T) {
	t.Parallel()

	t.Run("pending can start, fail or cancel", func(t *testing.T) {
		t.Parallel()

		for _, next := range []Status{StatusRunning, StatusFailed, StatusCancelled} {
			if !StatusPending.CanTransitionTo(next) {
				t.Errorf("pending -> %s should be allowed", next)
			}
		}
		if StatusPending.CanTransitionTo(StatusCompleted) {
			t.Error("pending -> completed should not be allowed")
		}
	})

	t.Run("running can complete, fail or cancel", func(t *testing.T) {
		t.Parallel()

		for _, next := range []Status{StatusCompleted, StatusFailed, StatusCancelled} {
			if !StatusRunning.CanTransitionTo(next) {
				t.Errorf("running -> %s should be allowed", next)
			}
		}
		if StatusRunning.CanTransitionTo(StatusPending) {
			t.Error("running -> pending should not be allowed")
		}
	})

	t.Run("terminal states accept no transitions", func(t *testing.T) {
		t.Parallel()

		terminals := []Status{StatusCompleted, StatusFailed, StatusCancelled}
		all := []Status{StatusPending, StatusRunning, StatusCompleted, StatusFailed, StatusCancelled}
		for _, from := range terminals {
			if !from.IsTerminal() {
				t.Errorf("%s should be terminal", from)
			}
			for _, to := range all {
				if from.CanTransitionTo(to) {
					t.Errorf("%s -> %s should not be allowed", from, to)
				}
			}
		}
	})

	t.Run("non-terminal states", func(t *testing.T) {
		t.Parallel()

		if StatusPending.IsTerminal() || StatusRunning.IsTerminal() {
			t.Error("pending and running should not be terminal")
		}
	})

	t.Run("validity", func(t *testing.T) {
		t.Parallel()

		if !StatusRunning.Valid() {
			t.Error("running should be valid")
		}
		if Status("paused").Valid() {
			t.Error("unknown status should be invalid")
		}
	})
}

// TestCategoryTaxonomy verifies the category set is closed and ordered.
func TestCategoryTaxonomy(t *testing.T) {
	t.Parallel()

	t.Run("mandatory categories are valid and ordered", func(t *testing.T) {
		t.Parallel()

		mandatory := MandatoryCategories()
		if len(mandatory) != 7 {
			t.Fatalf("expected 7 mandatory categories, got %d", len(mandatory))
		}
		if mandatory[0] != CategoryHomepage {
			t.Errorf("expected homepage first, got %s", mandatory[0])
		}
		if mandatory[6] != CategoryAuthentication {
			t.Errorf("expected authentication last, got %s", mandatory[6])
		}
		for _, c := range mandatory {
			if !c.Valid() {
				t.Errorf("mandatory category %s should be valid", c)
			}
		}
	})

	t.Run("unknown category is invalid", func(t *testing.T) {
		t.Parallel()

		if Category("blog").Valid() {
			t.Error("unknown category should be invalid")
		}
	})
}

// TestCharacteristicsSpecial verifies the diversity-sampling predicate.
func TestCharacteristicsSpecial(t *testing.T) {
	t.Parallel()

	if (Characteristics{}).Special() {
		t.Error("empty characteristics should not be special")
	}
	if !(Characteristics{HasTable: true}).Special() {
		t.Error("table pages should be special")
	}
	if !(Characteristics{HasDocuments: true}).Special() {
		t.Error("document pages should be special")
	}
	if (Characteristics{HasAuthentication: true}).Special() {
		t.Error("authentication alone should not be special")
	}
}
