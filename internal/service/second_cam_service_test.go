package service

import (
	"errors"
	"testing"
	"time"

	"github.com/omarrislam/Quiz-App/internal/model"
)

func secondCamOn(s *model.QuizSettings) {
	s.EnableSecondCam = true
	s.MobileAllowed = false
}

func TestSecondCam_LivenessWindow(t *testing.T) {
	f := newFixture(t)
	q, st, _ := f.seedQuiz(secondCamOn)
	out := f.mustStart(q, f.invite(q, st, "424242"))
	if out.SecondCamToken == "" {
		t.Fatal("no second cam token issued")
	}

	if _, err := f.secondCam.Connect(f.ctx, out.AttemptID, out.SecondCamToken); err != nil {
		t.Fatal(err)
	}

	f.advance(19 * time.Second)
	status, err := f.secondCam.Status(f.ctx, out.AttemptID)
	if err != nil {
		t.Fatal(err)
	}
	if !status.Enabled || !status.Connected {
		t.Fatalf("at 19s: %+v, want connected", status)
	}

	f.advance(2 * time.Second)
	status, err = f.secondCam.Status(f.ctx, out.AttemptID)
	if err != nil {
		t.Fatal(err)
	}
	if status.Connected {
		t.Fatalf("at 21s: %+v, want disconnected", status)
	}

	req := model.SecondCamHeartbeatRequest{Token: out.SecondCamToken, Mime: "image/jpeg", Data: "AAAA", Width: 640}
	if _, err := f.secondCam.Heartbeat(f.ctx, out.AttemptID, req); err != nil {
		t.Fatal(err)
	}
	if status, _ = f.secondCam.Status(f.ctx, out.AttemptID); !status.Connected {
		t.Fatalf("after heartbeat: %+v, want connected", status)
	}

	caps, err := f.db.Snapshots().ListSecondCam(f.ctx, out.AttemptID)
	if err != nil {
		t.Fatal(err)
	}
	if len(caps) != 1 || caps[0].Width != 640 || caps[0].Height != model.DefaultSnapshotHeight {
		t.Fatalf("captures = %+v", caps)
	}
}

func TestSecondCam_Disabled(t *testing.T) {
	f := newFixture(t)
	q, st, _ := f.seedQuiz(nil)
	out := f.mustStart(q, f.invite(q, st, "424242"))

	tok, err := f.auth.IssueSecondCamToken(out.AttemptID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.secondCam.Connect(f.ctx, out.AttemptID, tok); !errors.Is(err, ErrSecondCamOff) {
		t.Fatalf("err = %v, want ErrSecondCamOff", err)
	}
	status, err := f.secondCam.Status(f.ctx, out.AttemptID)
	if err != nil {
		t.Fatal(err)
	}
	if status.Enabled || status.Connected {
		t.Fatalf("status = %+v", status)
	}
}

func TestSecondCam_TokenScopedToAttempt(t *testing.T) {
	f := newFixture(t)
	q, st, _ := f.seedQuiz(secondCamOn)
	out := f.mustStart(q, f.invite(q, st, "424242"))

	inst, err := f.auth.GenerateInstructorToken(out.AttemptID, "x@example.com")
	if err != nil {
		t.Fatal(err)
	}
	for name, tok := range map[string]string{"empty": "", "garbage": "abc", "instructor token": inst} {
		t.Run(name, func(t *testing.T) {
			if _, err := f.secondCam.Connect(f.ctx, out.AttemptID, tok); !errors.Is(err, ErrSecondCamToken) {
				t.Fatalf("err = %v, want ErrSecondCamToken", err)
			}
		})
	}

	f.advance(6*time.Hour + time.Second)
	if _, err := f.secondCam.Connect(f.ctx, out.AttemptID, out.SecondCamToken); !errors.Is(err, ErrSecondCamToken) {
		t.Fatalf("expired token: err = %v", err)
	}
}

func TestSecondCam_EndedAttemptPurgesSession(t *testing.T) {
	f := newFixture(t)
	q, st, qs := f.seedQuiz(secondCamOn)
	out := f.mustStart(q, f.invite(q, st, "424242"))
	if _, err := f.secondCam.Connect(f.ctx, out.AttemptID, out.SecondCamToken); err != nil {
		t.Fatal(err)
	}

	if _, err := f.attempts.Finish(f.ctx, out.AttemptID, answersFor(qs, 0)); err != nil {
		t.Fatal(err)
	}
	if _, ok := f.db.Session(out.AttemptID); ok {
		t.Fatal("session survived finish")
	}
	if _, err := f.secondCam.Connect(f.ctx, out.AttemptID, out.SecondCamToken); !errors.Is(err, ErrAttemptNotActive) {
		t.Fatalf("err = %v, want ErrAttemptNotActive", err)
	}
}
