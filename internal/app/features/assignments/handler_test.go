package assignments_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/carecoord/internal/app/care/assignment"
	"github.com/dalemusser/carecoord/internal/app/care/capacity"
	"github.com/dalemusser/carecoord/internal/app/care/primary"
	"github.com/dalemusser/carecoord/internal/app/features/assignments"
	"github.com/dalemusser/carecoord/internal/app/system/locks"
	"github.com/dalemusser/carecoord/internal/app/system/planlimits"
	"github.com/dalemusser/carecoord/internal/domain/models"
	"github.com/dalemusser/carecoord/internal/testutil"
	"github.com/dalemusser/carecoord/internal/testutil/memstore"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fixture struct {
	db     *memstore.DB
	router chi.Router
	agency models.Agency
	group  primitive.ObjectID
	actor  primitive.ObjectID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memstore.New()
	group := primitive.NewObjectID()
	agency := db.Agencies.Put(models.Agency{
		Name:         "Harbor Home Care",
		GroupIDs:     []primitive.ObjectID{group},
		Subscription: models.AgencySubscription{Tier: models.TierSingleAgency},
	})

	logger := zap.NewNop()
	locker := locks.NewLocal()
	coord := assignment.New(assignment.Deps{
		Agencies:     db.Agencies,
		Elders:       db.Elders,
		Assignments:  db.Assignments,
		Memberships:  db.Memberships,
		GroupMembers: db.GroupMembers,
		Users:        db.Users,
		Capacity:     capacity.New(db.Assignments, planlimits.NewStatic(), logger),
		Primary:      primary.New(db.Elders, locker, nil, logger),
		Locker:       locker,
		Logger:       logger,
	})

	r := chi.NewRouter()
	r.Group(assignments.Routes(assignments.NewHandler(coord, logger)))
	return &fixture{db: db, router: r, agency: agency, group: group, actor: primitive.NewObjectID()}
}

func (f *fixture) elder(name string) models.Elder {
	return f.db.Elders.Put(models.Elder{AgencyID: f.agency.ID, GroupID: f.group, Name: name})
}

func (f *fixture) do(t *testing.T, method, path string, body any, actor primitive.ObjectID) *testutil.ResponseRecorder {
	t.Helper()
	rec := testutil.NewRecorder()
	f.router.ServeHTTP(rec, testutil.NewJSONRequest(t, method, path, body, actor))
	return rec
}

func (f *fixture) loadPath(caregiver primitive.ObjectID) string {
	return "/agencies/" + f.agency.ID.Hex() + "/caregivers/" + caregiver.Hex() + "/load"
}

func TestAssignThenCapacity(t *testing.T) {
	f := newFixture(t)
	caregiver := f.db.Users.Put("Rosa Park")
	path := "/agencies/" + f.agency.ID.Hex() + "/assignments"

	first := map[string]any{
		"caregiver_id": caregiver,
		"group_id":     f.group,
		"elder_ids":    []primitive.ObjectID{f.elder("A").ID, f.elder("B").ID},
	}
	rec := f.do(t, http.MethodPost, path, first, f.actor)
	rec.AssertStatus(t, http.StatusCreated)
	var res assignment.Result
	rec.DecodeData(t, &res)
	if res.Outcome != assignment.OutcomeCreated || res.AssignmentID == nil {
		t.Fatalf("result = %+v", res)
	}

	rec = f.do(t, http.MethodGet, f.loadPath(caregiver), nil, primitive.NilObjectID)
	rec.AssertStatus(t, http.StatusOK)
	var load capacity.Load
	rec.DecodeData(t, &load)
	if load.Current != 2 || load.Limit != 3 || load.Remaining != 1 {
		t.Errorf("load = %+v", load)
	}

	second := map[string]any{
		"caregiver_id": caregiver,
		"group_id":     f.group,
		"elder_ids":    []primitive.ObjectID{f.elder("C").ID, f.elder("D").ID},
	}
	rec = f.do(t, http.MethodPost, path, second, f.actor)
	rec.AssertStatus(t, http.StatusUnprocessableEntity)
	if kind := rec.ErrorKind(t); kind != "capacity_exceeded" {
		t.Errorf("kind = %q", kind)
	}
	rec.AssertContains(t, "Limit is 3 elders per caregiver.")
}

func TestAssign_PrimaryConflictReturns409(t *testing.T) {
	f := newFixture(t)
	incumbent := primitive.NewObjectID()
	e := f.db.Elders.Put(models.Elder{
		AgencyID:             f.agency.ID,
		GroupID:              f.group,
		Name:                 "Walter",
		PrimaryCaregiverID:   &incumbent,
		PrimaryCaregiverName: "Ivy",
	})
	caregiver := f.db.Users.Put("June")

	body := map[string]any{
		"caregiver_id":      caregiver,
		"group_id":          f.group,
		"elder_ids":         []primitive.ObjectID{e.ID},
		"assign_as_primary": true,
	}
	rec := f.do(t, http.MethodPost, "/agencies/"+f.agency.ID.Hex()+"/assignments", body, f.actor)
	rec.AssertStatus(t, http.StatusConflict)

	var res assignment.Result
	rec.DecodeData(t, &res)
	if len(res.Conflicts) != 1 || res.Conflicts[0].CurrentPrimaryCaregiverName != "Ivy" {
		t.Errorf("conflicts = %+v", res.Conflicts)
	}
	if f.db.Assignments.Count() != 0 {
		t.Error("conflict must not write an assignment")
	}
}

func TestAssign_Rejections(t *testing.T) {
	f := newFixture(t)
	caregiver := f.db.Users.Put("Omar")
	valid := map[string]any{
		"caregiver_id": caregiver,
		"group_id":     f.group,
		"elder_ids":    []primitive.ObjectID{f.elder("E").ID},
	}

	tests := []struct {
		name   string
		path   string
		body   any
		actor  primitive.ObjectID
		status int
		kind   string
	}{
		{"missing actor", "/agencies/" + f.agency.ID.Hex() + "/assignments", valid, primitive.NilObjectID, http.StatusForbidden, "unauthorized"},
		{"bad agency id", "/agencies/nope/assignments", valid, f.actor, http.StatusBadRequest, "validation"},
		{"unknown agency", "/agencies/" + primitive.NewObjectID().Hex() + "/assignments", valid, f.actor, http.StatusNotFound, "not_found"},
		{"no elders", "/agencies/" + f.agency.ID.Hex() + "/assignments", map[string]any{"caregiver_id": caregiver, "group_id": f.group}, f.actor, http.StatusBadRequest, "validation"},
		{"unknown field", "/agencies/" + f.agency.ID.Hex() + "/assignments", map[string]any{"caregiver": caregiver}, f.actor, http.StatusBadRequest, "validation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, tt.path, tt.body, tt.actor)
			rec.AssertStatus(t, tt.status)
			if kind := rec.ErrorKind(t); kind != tt.kind {
				t.Errorf("kind = %q, want %q", kind, tt.kind)
			}
		})
	}
}

func TestRemoveAndList(t *testing.T) {
	f := newFixture(t)
	caregiver := f.db.Users.Put("Lena")
	rec := f.do(t, http.MethodPost, "/agencies/"+f.agency.ID.Hex()+"/assignments", map[string]any{
		"caregiver_id": caregiver,
		"group_id":     f.group,
		"elder_ids":    []primitive.ObjectID{f.elder("F").ID},
	}, f.actor)
	rec.AssertStatus(t, http.StatusCreated)
	var res assignment.Result
	rec.DecodeData(t, &res)

	listPath := "/agencies/" + f.agency.ID.Hex() + "/caregivers/" + caregiver.Hex() + "/assignments"
	rec = f.do(t, http.MethodGet, listPath, nil, primitive.NilObjectID)
	var list []models.CaregiverAssignment
	rec.DecodeData(t, &list)
	if len(list) != 1 {
		t.Fatalf("expected 1 active assignment, got %d", len(list))
	}

	rec = f.do(t, http.MethodDelete, "/assignments/"+res.AssignmentID.Hex(), nil, f.actor)
	rec.AssertStatus(t, http.StatusOK)

	rec = f.do(t, http.MethodGet, listPath, nil, primitive.NilObjectID)
	list = nil
	rec.DecodeData(t, &list)
	if len(list) != 0 {
		t.Errorf("expected no active assignments after removal, got %d", len(list))
	}

	rec = f.do(t, http.MethodDelete, "/assignments/"+primitive.NewObjectID().Hex(), nil, f.actor)
	rec.AssertStatus(t, http.StatusNotFound)
}
