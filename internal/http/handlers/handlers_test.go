package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mahmoudomarus/chipn/internal/domain"
	"github.com/mahmoudomarus/chipn/internal/services"
)

// ----- Fakes -----

type fakePostService struct {
	createAuthor string
	createIn     services.NewPost
	createErr    error

	feedCursor int
	feedPage   *services.FeedPage

	searchQ    string
	searchDeep bool
	searchOut  []domain.Post

	getErr   error
	boostErr error
}

func (f *fakePostService) Create(ctx context.Context, authorID string, in services.NewPost) (*domain.Post, error) {
	f.createAuthor, f.createIn = authorID, in
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &domain.Post{ID: "p1", AuthorID: authorID, Type: in.Type, Title: in.Title}, nil
}

func (f *fakePostService) List(ctx context.Context, authorID string) ([]domain.Post, error) {
	return []domain.Post{{ID: "p1"}}, nil
}

func (f *fakePostService) Get(ctx context.Context, id string) (*domain.Post, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &domain.Post{ID: id}, nil
}

func (f *fakePostService) Boost(ctx context.Context, id string) (*domain.Post, error) {
	if f.boostErr != nil {
		return nil, f.boostErr
	}
	return &domain.Post{ID: id, BoostCount: 2}, nil
}

func (f *fakePostService) Feed(ctx context.Context, cursor int) (*services.FeedPage, error) {
	f.feedCursor = cursor
	if f.feedPage != nil {
		return f.feedPage, nil
	}
	return &services.FeedPage{Items: []domain.Post{}}, nil
}

func (f *fakePostService) Search(ctx context.Context, query string, deep bool) ([]domain.Post, error) {
	f.searchQ, f.searchDeep = query, deep
	return f.searchOut, nil
}

type fakeInvestmentService struct {
	createInvestor string
	createPostID   string
	createAmount   float64
	createErr      error

	listCaller   string
	listInvestor string
	listErr      error

	submitCaller string
	submitID     string
	submitNotes  string
	submitErr    error
}

func (f *fakeInvestmentService) Create(ctx context.Context, investorID, postID string, amount float64, docURL *string) (*domain.Investment, error) {
	f.createInvestor, f.createPostID, f.createAmount = investorID, postID, amount
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &domain.Investment{ID: "inv1", InvestorID: investorID, PostID: postID, Amount: amount, Status: services.InitialStatus(amount)}, nil
}

func (f *fakeInvestmentService) ListMine(ctx context.Context, callerID, investorID string) ([]domain.Investment, error) {
	f.listCaller, f.listInvestor = callerID, investorID
	if f.listErr != nil {
		return nil, f.listErr
	}
	return []domain.Investment{{ID: "inv1", InvestorID: investorID}}, nil
}

func (f *fakeInvestmentService) ListInbound(ctx context.Context, callerID string) ([]services.InboundInvestment, error) {
	return []services.InboundInvestment{{Investment: domain.Investment{ID: "inv1"}, PostTitle: "T"}}, nil
}

func (f *fakeInvestmentService) SubmitDueDiligence(ctx context.Context, callerID, investmentID, notes string) error {
	f.submitCaller, f.submitID, f.submitNotes = callerID, investmentID, notes
	return f.submitErr
}

type fakeStore struct {
	videoCalls int
	deckCalls  int
	lastOwner  string
	lastType   string
	lastSize   int
	err        error
}

func (f *fakeStore) UploadVideo(ctx context.Context, ownerID, filename, contentType string, data []byte) (string, error) {
	f.videoCalls++
	f.lastOwner, f.lastType, f.lastSize = ownerID, contentType, len(data)
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.example/signed/video", nil
}

func (f *fakeStore) UploadDeck(ctx context.Context, ownerID, filename, contentType string, data []byte) (string, error) {
	f.deckCalls++
	f.lastOwner, f.lastType, f.lastSize = ownerID, contentType, len(data)
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.example/public/deck", nil
}

type fakeSummarizer struct {
	out string
	err error
}

func (f *fakeSummarizer) Summarize(ctx context.Context, content string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.out, nil
}

// ----- Router scaffolding -----

// asUser injects the verified identity the way the auth middleware does.
func asUser(sub string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sub != "" {
			c.Set("userID", sub)
		}
		c.Next()
	}
}

func testRouter(h *Handlers, sub string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(asUser(sub))

	r.POST("/posts", h.CreatePost)
	r.GET("/posts", h.ListPosts)
	r.GET("/posts/:id", h.GetPost)
	r.POST("/posts/:id/boost", h.BoostPost)
	r.GET("/feed", h.GetFeed)
	r.GET("/search", h.SearchPosts)
	r.POST("/investments", h.CreateInvestment)
	r.GET("/investments", h.ListInvestments)
	r.GET("/investments/inbound", h.ListInboundInvestments)
	r.POST("/investments/:id/due-diligence", h.SubmitDueDiligence)
	r.POST("/uploads/pitch-video", h.UploadPitchVideo)
	r.POST("/uploads/pitch-deck", h.UploadPitchDeck)
	r.POST("/ai/summarize", h.Summarize)
	r.POST("/auth/verify-id", h.VerifyID)
	return r
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var rd *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// multipartFile builds a multipart body with one "file" part carrying the
// given declared content type.
func multipartFile(t *testing.T, contentType string, size int) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="pitch.bin"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(bytes.Repeat([]byte("x"), size)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	_ = mw.Close()
	return &buf, mw.FormDataContentType()
}

// ----- Posts -----

func TestCreatePost_AuthorFromToken(t *testing.T) {
	svc := &fakePostService{}
	r := testRouter(New(svc, &fakeInvestmentService{}, &fakeStore{}, &fakeSummarizer{}), "user-1")

	w := doJSON(r, http.MethodPost, "/posts", gin.H{
		"type": "idea", "title": "T", "description": "D",
		"author_id": "spoofed", // must be ignored
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if svc.createAuthor != "user-1" {
		t.Fatalf("author = %q, want user-1", svc.createAuthor)
	}
}

func TestCreatePost_Unauthenticated(t *testing.T) {
	r := testRouter(New(&fakePostService{}, &fakeInvestmentService{}, &fakeStore{}, &fakeSummarizer{}), "")
	w := doJSON(r, http.MethodPost, "/posts", gin.H{"type": "idea", "title": "T", "description": "D"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestCreatePost_InvalidType(t *testing.T) {
	svc := &fakePostService{createErr: services.ErrInvalidPostType}
	r := testRouter(New(svc, &fakeInvestmentService{}, &fakeStore{}, &fakeSummarizer{}), "user-1")

	w := doJSON(r, http.MethodPost, "/posts", gin.H{"type": "startup", "title": "T", "description": "D"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestGetPost_NotFound(t *testing.T) {
	svc := &fakePostService{getErr: services.ErrPostNotFound}
	r := testRouter(New(svc, &fakeInvestmentService{}, &fakeStore{}, &fakeSummarizer{}), "")

	w := doJSON(r, http.MethodGet, "/posts/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if !strings.Contains(w.Body.String(), ErrCodeNotFound) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestGetPost_StoreOutage(t *testing.T) {
	svc := &fakePostService{getErr: errors.New("connection refused")}
	r := testRouter(New(svc, &fakeInvestmentService{}, &fakeStore{}, &fakeSummarizer{}), "")

	w := doJSON(r, http.MethodGet, "/posts/p1", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	if !strings.Contains(w.Body.String(), ErrCodeUpstream) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestBoostPost(t *testing.T) {
	r := testRouter(New(&fakePostService{}, &fakeInvestmentService{}, &fakeStore{}, &fakeSummarizer{}), "user-1")

	w := doJSON(r, http.MethodPost, "/posts/p1/boost", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"boost_count":2`) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

// ----- Feed / search -----

func TestGetFeed_CursorAndNext(t *testing.T) {
	next := 10
	svc := &fakePostService{feedPage: &services.FeedPage{
		Items:      []domain.Post{{ID: "a"}},
		NextCursor: &next,
	}}
	r := testRouter(New(svc, &fakeInvestmentService{}, &fakeStore{}, &fakeSummarizer{}), "")

	w := doJSON(r, http.MethodGet, "/feed?cursor=5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if svc.feedCursor != 5 {
		t.Fatalf("cursor = %d, want 5", svc.feedCursor)
	}
	if !strings.Contains(w.Body.String(), `"next_cursor":10`) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestGetFeed_BadCursorDefaultsToZero(t *testing.T) {
	svc := &fakePostService{}
	r := testRouter(New(svc, &fakeInvestmentService{}, &fakeStore{}, &fakeSummarizer{}), "")

	if w := doJSON(r, http.MethodGet, "/feed?cursor=oops", nil); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if svc.feedCursor != 0 {
		t.Fatalf("cursor = %d, want 0", svc.feedCursor)
	}
}

func TestSearch_RequiresQuery(t *testing.T) {
	r := testRouter(New(&fakePostService{}, &fakeInvestmentService{}, &fakeStore{}, &fakeSummarizer{}), "")
	if w := doJSON(r, http.MethodGet, "/search", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestSearch_DeepFlag(t *testing.T) {
	svc := &fakePostService{searchOut: []domain.Post{{ID: "hit"}}}
	r := testRouter(New(svc, &fakeInvestmentService{}, &fakeStore{}, &fakeSummarizer{}), "")

	w := doJSON(r, http.MethodGet, "/search?q=solar&deep=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if svc.searchQ != "solar" || !svc.searchDeep {
		t.Fatalf("search called with (%q, %v)", svc.searchQ, svc.searchDeep)
	}
}

// ----- Investments -----

func TestCreateInvestment_InvestorFromToken(t *testing.T) {
	svc := &fakeInvestmentService{}
	r := testRouter(New(&fakePostService{}, svc, &fakeStore{}, &fakeSummarizer{}), "investor-1")

	w := doJSON(r, http.MethodPost, "/investments", gin.H{
		"post_id": "p1", "amount": 12000,
		"investor_id": "spoofed", // must be ignored
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if svc.createInvestor != "investor-1" {
		t.Fatalf("investor = %q, want investor-1", svc.createInvestor)
	}
	if !strings.Contains(w.Body.String(), `"pending_diligence"`) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestListInvestments_DefaultsToCaller(t *testing.T) {
	svc := &fakeInvestmentService{}
	r := testRouter(New(&fakePostService{}, svc, &fakeStore{}, &fakeSummarizer{}), "alice")

	if w := doJSON(r, http.MethodGet, "/investments", nil); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if svc.listCaller != "alice" || svc.listInvestor != "alice" {
		t.Fatalf("ListMine(%q, %q)", svc.listCaller, svc.listInvestor)
	}
}

func TestListInvestments_ForeignInvestorForbidden(t *testing.T) {
	svc := &fakeInvestmentService{listErr: services.ErrForbidden}
	r := testRouter(New(&fakePostService{}, svc, &fakeStore{}, &fakeSummarizer{}), "alice")

	w := doJSON(r, http.MethodGet, "/investments?investor_id=bob", nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	if svc.listInvestor != "bob" {
		t.Fatalf("queried investor = %q", svc.listInvestor)
	}
}

func TestSubmitDueDiligence_RequiresNotes(t *testing.T) {
	r := testRouter(New(&fakePostService{}, &fakeInvestmentService{}, &fakeStore{}, &fakeSummarizer{}), "alice")

	w := doJSON(r, http.MethodPost, "/investments/inv1/due-diligence", gin.H{"notes": "  "})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestSubmitDueDiligence_OK(t *testing.T) {
	svc := &fakeInvestmentService{}
	r := testRouter(New(&fakePostService{}, svc, &fakeStore{}, &fakeSummarizer{}), "alice")

	w := doJSON(r, http.MethodPost, "/investments/inv1/due-diligence", gin.H{"notes": "clean"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if svc.submitCaller != "alice" || svc.submitID != "inv1" || svc.submitNotes != "clean" {
		t.Fatalf("submit(%q, %q, %q)", svc.submitCaller, svc.submitID, svc.submitNotes)
	}
	if !strings.Contains(w.Body.String(), `"in_review"`) {
		t.Fatalf("body = %s", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"investment_id":"inv1"`) {
		t.Fatalf("expected investment id echoed back, body = %s", w.Body.String())
	}
}

// ----- Uploads -----

func TestUploadVideo_UnsupportedTypeNeverTouchesStorage(t *testing.T) {
	store := &fakeStore{}
	r := testRouter(New(&fakePostService{}, &fakeInvestmentService{}, store, &fakeSummarizer{}), "u1")

	body, ct := multipartFile(t, "image/png", 64)
	req := httptest.NewRequest(http.MethodPost, "/uploads/pitch-video", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", w.Code)
	}
	if store.videoCalls != 0 {
		t.Fatalf("storage called %d times for rejected upload", store.videoCalls)
	}
}

func TestUploadDeck_OversizedFileNeverTouchesStorage(t *testing.T) {
	store := &fakeStore{}
	r := testRouter(New(&fakePostService{}, &fakeInvestmentService{}, store, &fakeSummarizer{}), "u1")

	body, ct := multipartFile(t, "application/pdf", 20<<20+1)
	req := httptest.NewRequest(http.MethodPost, "/uploads/pitch-deck", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", w.Code)
	}
	if !strings.Contains(w.Body.String(), ErrCodePayloadTooLarge) {
		t.Fatalf("body = %s", w.Body.String())
	}
	if store.deckCalls != 0 {
		t.Fatalf("storage called %d times for rejected upload", store.deckCalls)
	}
}

func TestUploadVideo_BodyOverTransportCapIs413(t *testing.T) {
	store := &fakeStore{}
	h := New(&fakePostService{}, &fakeInvestmentService{}, store, &fakeSummarizer{})

	// Mirror the router's body cap, shrunk so the test body trips it.
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(asUser("u1"))
	r.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 1<<10)
		c.Next()
	})
	r.POST("/uploads/pitch-video", h.UploadPitchVideo)

	body, ct := multipartFile(t, "video/mp4", 4<<10)
	req := httptest.NewRequest(http.MethodPost, "/uploads/pitch-video", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413 (body %s)", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), ErrCodePayloadTooLarge) {
		t.Fatalf("body = %s", w.Body.String())
	}
	if store.videoCalls != 0 {
		t.Fatalf("storage called %d times for rejected upload", store.videoCalls)
	}
}

func TestUploadDeck_OK(t *testing.T) {
	store := &fakeStore{}
	r := testRouter(New(&fakePostService{}, &fakeInvestmentService{}, store, &fakeSummarizer{}), "u1")

	body, ct := multipartFile(t, "application/pdf", 128)
	req := httptest.NewRequest(http.MethodPost, "/uploads/pitch-deck", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if store.deckCalls != 1 || store.lastOwner != "u1" || store.lastType != "application/pdf" || store.lastSize != 128 {
		t.Fatalf("store call = (%d, %q, %q, %d)", store.deckCalls, store.lastOwner, store.lastType, store.lastSize)
	}
	if !strings.Contains(w.Body.String(), "https://cdn.example/public/deck") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestUploadVideo_MissingFile(t *testing.T) {
	r := testRouter(New(&fakePostService{}, &fakeInvestmentService{}, &fakeStore{}, &fakeSummarizer{}), "u1")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("other", "x")
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/uploads/pitch-video", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestUploadVideo_StoreFailure503(t *testing.T) {
	store := &fakeStore{err: errors.New("bucket unreachable")}
	r := testRouter(New(&fakePostService{}, &fakeInvestmentService{}, store, &fakeSummarizer{}), "u1")

	body, ct := multipartFile(t, "video/mp4", 64)
	req := httptest.NewRequest(http.MethodPost, "/uploads/pitch-video", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

// ----- AI -----

func TestSummarize_OK(t *testing.T) {
	r := testRouter(New(&fakePostService{}, &fakeInvestmentService{}, &fakeStore{}, &fakeSummarizer{out: "short version"}), "u1")

	w := doJSON(r, http.MethodPost, "/ai/summarize", gin.H{"content": "a very long pitch"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "short version") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestSummarize_FallsBackOnError(t *testing.T) {
	r := testRouter(New(&fakePostService{}, &fakeInvestmentService{}, &fakeStore{}, &fakeSummarizer{err: errors.New("api down")}), "u1")

	w := doJSON(r, http.MethodPost, "/ai/summarize", gin.H{"content": "a very long pitch"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with fallback", w.Code)
	}
	if !strings.Contains(w.Body.String(), "AI Summary:") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

// ----- Auth stub -----

func TestVerifyID_Accepted(t *testing.T) {
	r := testRouter(New(&fakePostService{}, &fakeInvestmentService{}, &fakeStore{}, &fakeSummarizer{}), "u1")

	w := doJSON(r, http.MethodPost, "/auth/verify-id", nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", w.Code)
	}
}
