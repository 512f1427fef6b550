package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/mahmoudomarus/chipn/internal/domain"
)

// ----- Fake repos -----

type fakeInvestmentRepo struct {
	created *domain.Investment

	listInvestorID string
	listItems      []domain.Investment

	forPostsIDs   []string
	forPostsItems []domain.Investment

	getID  string
	getInv *domain.Investment
	getErr error

	submitID    string
	submitNotes string
	submitErr   error
}

func (r *fakeInvestmentRepo) CreateInvestment(ctx context.Context, db *gorm.DB, inv *domain.Investment) (*domain.Investment, error) {
	r.created = inv
	out := *inv
	out.ID = "inv1"
	return &out, nil
}

func (r *fakeInvestmentRepo) ListInvestmentsByInvestor(ctx context.Context, db *gorm.DB, investorID string) ([]domain.Investment, error) {
	r.listInvestorID = investorID
	return r.listItems, nil
}

func (r *fakeInvestmentRepo) ListInvestmentsForPosts(ctx context.Context, db *gorm.DB, postIDs []string) ([]domain.Investment, error) {
	r.forPostsIDs = postIDs
	return r.forPostsItems, nil
}

func (r *fakeInvestmentRepo) GetInvestment(ctx context.Context, db *gorm.DB, id string) (*domain.Investment, error) {
	r.getID = id
	return r.getInv, r.getErr
}

func (r *fakeInvestmentRepo) SubmitDueDiligence(ctx context.Context, db *gorm.DB, id, notes string) error {
	r.submitID, r.submitNotes = id, notes
	return r.submitErr
}

type fakePostRepo struct {
	getErr   error
	getPost  *domain.Post
	listBy   string
	listOut  []domain.Post
	searched string
}

func (r *fakePostRepo) CreatePost(ctx context.Context, db *gorm.DB, p *domain.Post) (*domain.Post, error) {
	out := *p
	out.ID = "p1"
	return &out, nil
}

func (r *fakePostRepo) ListPosts(ctx context.Context, db *gorm.DB, authorID string) ([]domain.Post, error) {
	r.listBy = authorID
	return r.listOut, nil
}

func (r *fakePostRepo) ListPostsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Post, error) {
	return r.listOut, nil
}

func (r *fakePostRepo) GetPost(ctx context.Context, db *gorm.DB, id string) (*domain.Post, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	if r.getPost != nil {
		return r.getPost, nil
	}
	return &domain.Post{ID: id}, nil
}

func (r *fakePostRepo) BoostPost(ctx context.Context, db *gorm.DB, id string) (*domain.Post, error) {
	return &domain.Post{ID: id, BoostCount: 1}, nil
}

func (r *fakePostRepo) SearchPosts(ctx context.Context, db *gorm.DB, query string, limit int) ([]domain.Post, error) {
	r.searched = query
	return r.listOut, nil
}

// ----- Initial status policy -----

func TestInitialStatus(t *testing.T) {
	cases := []struct {
		amount float64
		want   string
	}{
		{5000, domain.StatusApproved},
		{10000, domain.StatusApproved}, // boundary is exclusive
		{10000.01, domain.StatusPendingDiligence},
		{15000, domain.StatusPendingDiligence},
	}
	for _, tc := range cases {
		if got := InitialStatus(tc.amount); got != tc.want {
			t.Errorf("InitialStatus(%v) = %q, want %q", tc.amount, got, tc.want)
		}
	}
}

// ----- Create -----

func TestInvestmentCreateSetsStatusAndInvestor(t *testing.T) {
	repo := &fakeInvestmentRepo{}
	svc := &InvestmentService{Repo: repo, Posts: &fakePostRepo{}}

	inv, err := svc.Create(context.Background(), "investor-1", "post-1", 12000, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if inv.Status != domain.StatusPendingDiligence {
		t.Fatalf("status = %q, want pending_diligence", inv.Status)
	}
	if repo.created.InvestorID != "investor-1" {
		t.Fatalf("investor = %q, want investor-1", repo.created.InvestorID)
	}
	if repo.created.PostID != "post-1" {
		t.Fatalf("post = %q, want post-1", repo.created.PostID)
	}
}

func TestInvestmentCreateRejectsNonPositiveAmount(t *testing.T) {
	svc := &InvestmentService{Repo: &fakeInvestmentRepo{}, Posts: &fakePostRepo{}}

	for _, amount := range []float64{0, -50} {
		if _, err := svc.Create(context.Background(), "i1", "p1", amount, nil); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("Create(amount=%v) err = %v, want ErrInvalidAmount", amount, err)
		}
	}
}

func TestInvestmentCreateMissingPost(t *testing.T) {
	svc := &InvestmentService{
		Repo:  &fakeInvestmentRepo{},
		Posts: &fakePostRepo{getErr: gorm.ErrRecordNotFound},
	}
	if _, err := svc.Create(context.Background(), "i1", "gone", 100, nil); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("err = %v, want ErrPostNotFound", err)
	}
}

// ----- ListMine -----

func TestListMineRequiresOwnership(t *testing.T) {
	repo := &fakeInvestmentRepo{listItems: []domain.Investment{{ID: "inv1"}}}
	svc := &InvestmentService{Repo: repo}

	items, err := svc.ListMine(context.Background(), "alice", "alice")
	if err != nil {
		t.Fatalf("ListMine own: %v", err)
	}
	if len(items) != 1 || repo.listInvestorID != "alice" {
		t.Fatalf("unexpected result %v (queried %q)", items, repo.listInvestorID)
	}

	if _, err := svc.ListMine(context.Background(), "alice", "bob"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("ListMine foreign err = %v, want ErrForbidden", err)
	}
}

func TestListMineOwnershipIsCaseSensitive(t *testing.T) {
	svc := &InvestmentService{Repo: &fakeInvestmentRepo{}}
	if _, err := svc.ListMine(context.Background(), "Alice", "alice"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

// ----- ListInbound -----

func TestListInboundAnnotatesPostTitles(t *testing.T) {
	posts := &fakePostRepo{listOut: []domain.Post{
		{ID: "p1", Title: "Drone fleet"},
		{ID: "p2", Title: "Solar roof"},
	}}
	repo := &fakeInvestmentRepo{forPostsItems: []domain.Investment{
		{ID: "i1", PostID: "p2", Amount: 50},
		{ID: "i2", PostID: "p1", Amount: 75},
	}}
	svc := &InvestmentService{Repo: repo, Posts: posts}

	items, err := svc.ListInbound(context.Background(), "founder")
	if err != nil {
		t.Fatalf("ListInbound: %v", err)
	}
	if posts.listBy != "founder" {
		t.Fatalf("posts queried for %q, want founder", posts.listBy)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].PostTitle != "Solar roof" || items[1].PostTitle != "Drone fleet" {
		t.Fatalf("titles = %q, %q", items[0].PostTitle, items[1].PostTitle)
	}
}

func TestListInboundNoPosts(t *testing.T) {
	repo := &fakeInvestmentRepo{}
	svc := &InvestmentService{Repo: repo, Posts: &fakePostRepo{}}

	items, err := svc.ListInbound(context.Background(), "founder")
	if err != nil {
		t.Fatalf("ListInbound: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("got %d items, want 0", len(items))
	}
	if repo.forPostsIDs != nil {
		t.Fatalf("investments queried despite no posts")
	}
}

// ----- SubmitDueDiligence -----

func TestSubmitDueDiligence(t *testing.T) {
	repo := &fakeInvestmentRepo{
		getInv: &domain.Investment{ID: "inv1", InvestorID: "alice", Status: domain.StatusPendingDiligence},
	}
	svc := &InvestmentService{Repo: repo}

	if err := svc.SubmitDueDiligence(context.Background(), "alice", "inv1", "clean books"); err != nil {
		t.Fatalf("SubmitDueDiligence: %v", err)
	}
	if repo.submitID != "inv1" || repo.submitNotes != "clean books" {
		t.Fatalf("submitted (%q, %q)", repo.submitID, repo.submitNotes)
	}
}

func TestSubmitDueDiligenceForbiddenLeavesStatus(t *testing.T) {
	repo := &fakeInvestmentRepo{
		getInv: &domain.Investment{ID: "inv1", InvestorID: "alice", Status: domain.StatusPendingDiligence},
	}
	svc := &InvestmentService{Repo: repo}

	err := svc.SubmitDueDiligence(context.Background(), "mallory", "inv1", "notes")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if repo.submitID != "" {
		t.Fatalf("transition persisted despite authorization failure")
	}
}

func TestSubmitDueDiligenceNotFound(t *testing.T) {
	repo := &fakeInvestmentRepo{getErr: gorm.ErrRecordNotFound}
	svc := &InvestmentService{Repo: repo}

	if err := svc.SubmitDueDiligence(context.Background(), "alice", "gone", "notes"); !errors.Is(err, ErrInvestmentNotFound) {
		t.Fatalf("err = %v, want ErrInvestmentNotFound", err)
	}
}
