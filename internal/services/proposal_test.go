package services

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/acmetrans/mgcp/internal/config"
	"github.com/acmetrans/mgcp/internal/models"
)

// fakeGenerator records documents without touching disk. With contractPartial
// set it writes a document row before failing, mimicking a generator that dies
// halfway through its statements.
type fakeGenerator struct {
	proposalCalls   int
	contractCalls   int
	resignCalls     int
	contractErr     error
	contractPartial bool
	lastSignature   string
}

func (f *fakeGenerator) Proposal(tx *gorm.DB, p *models.Proposal) (*models.GeneratedDocument, error) {
	f.proposalCalls++
	doc := models.GeneratedDocument{ProposalID: p.ID, Type: models.DocPropuesta, Version: p.Version, Path: "fake/propuesta.html", Hash: "abc"}
	if err := tx.Create(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (f *fakeGenerator) Contract(tx *gorm.DB, p *models.Proposal) (*models.GeneratedDocument, error) {
	f.contractCalls++
	if f.contractErr != nil {
		if f.contractPartial {
			doc := models.GeneratedDocument{ProposalID: p.ID, Type: models.DocContrato, Version: p.Version, Path: "fake/contrato.html"}
			if err := tx.Create(&doc).Error; err != nil {
				return nil, err
			}
		}
		return nil, f.contractErr
	}
	doc := models.GeneratedDocument{ProposalID: p.ID, Type: models.DocContrato, Version: p.Version, Path: "fake/contrato.html", Hash: "def"}
	if err := tx.Create(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (f *fakeGenerator) ResignContract(_ *gorm.DB, _ *models.Proposal, _ *models.GeneratedDocument, signature string) error {
	f.resignCalls++
	f.lastSignature = signature
	return nil
}

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Client{}, &models.Proposal{}, &models.ProposalVersion{},
		&models.ClientResponse{}, &models.Notification{}, &models.GeneratedDocument{},
		&models.IndirectCostRecord{}, &models.CostConfiguration{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testPricing() config.Pricing {
	return config.Pricing{ProfitMin: 25, ProfitMax: 35, ValidityHours: 24}
}

func testRecipients() Recipients {
	return Recipients{Operations: "ops@test", Director: "dir@test", Audit: "audit@test"}
}

func seedClient(t *testing.T, db *gorm.DB) models.Client {
	t.Helper()
	c := models.Client{Name: "Minera Austral", Email: "contacto@austral.cl", Phone: "+56911112222"}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("client: %v", err)
	}
	return c
}

func newTestService(db *gorm.DB, gen *fakeGenerator) *ProposalService {
	return NewProposalService(db, gen, testPricing(), "http://test.local", testRecipients())
}

func createTestProposal(t *testing.T, svc *ProposalService, clientID string) *models.Proposal {
	t.Helper()
	p, err := svc.Create(CreateInput{
		ClientID:           clientID,
		DirectCost:         1000000,
		ServiceDescription: "Transporte Santiago-Antofagasta",
		ProfitPercentage:   30,
		DirectorUser:       "director",
		Origin:             "Santiago",
		Destination:        "Antofagasta",
		TruckType:          "GC",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return p
}

func TestCreateProposal(t *testing.T) {
	db := setupServiceTestDB(t)
	client := seedClient(t, db)
	svc := newTestService(db, &fakeGenerator{})

	// Overhead inside the trailing window feeds the applied indirect cost.
	if err := db.Create(&models.IndirectCostRecord{Month: 8, Year: 2026, Amount: 50000, RegisteredAt: time.Now().UTC().AddDate(0, 0, -3)}).Error; err != nil {
		t.Fatalf("cost record: %v", err)
	}

	p := createTestProposal(t, svc, client.ID)
	if p.State != models.StatePregenerada {
		t.Fatalf("expected PREGENERADA got %s", p.State)
	}
	wantPrefix := "PROP-" + time.Now().UTC().Format("200601") + "-"
	if !strings.HasPrefix(p.Number, wantPrefix) || !strings.HasSuffix(p.Number, "0001") {
		t.Fatalf("unexpected number %s", p.Number)
	}
	if p.AppliedIndirectCost != 50000 {
		t.Fatalf("expected indirect 50000 got %v", p.AppliedIndirectCost)
	}
	// Creation stores the raw figure, no thousand rounding.
	if want := 1000000 + 50000 + 300000.0; p.FinalPrice != want {
		t.Fatalf("expected price %v got %v", want, p.FinalPrice)
	}
	if p.AccessToken == "" || len(p.AccessToken) < 40 {
		t.Fatalf("weak access token %q", p.AccessToken)
	}

	var versions []models.ProposalVersion
	if err := db.Where("proposal_id = ?", p.ID).Find(&versions).Error; err != nil {
		t.Fatalf("versions: %v", err)
	}
	if len(versions) != 1 || versions[0].Sequence != 1 {
		t.Fatalf("expected one version row, got %#v", versions)
	}
	if versions[0].Changes != "Creación inicial de propuesta" {
		t.Fatalf("unexpected changes %q", versions[0].Changes)
	}
}

func TestCreateValidation(t *testing.T) {
	db := setupServiceTestDB(t)
	client := seedClient(t, db)
	svc := newTestService(db, &fakeGenerator{})

	_, err := svc.Create(CreateInput{ClientID: client.ID, DirectCost: -5, ServiceDescription: "x", ProfitPercentage: 30})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error got %v", err)
	}
	if _, ok := ve.Violations["direct_cost"]; !ok {
		t.Fatalf("expected direct_cost violation: %#v", ve.Violations)
	}

	_, err = svc.Create(CreateInput{ClientID: client.ID, DirectCost: 100, ServiceDescription: "x", ProfitPercentage: 20})
	if !errors.As(err, &ve) {
		t.Fatalf("expected profit range violation got %v", err)
	}

	_, err = svc.Create(CreateInput{ClientID: "no-such-id", DirectCost: 100, ServiceDescription: "x", ProfitPercentage: 30})
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Entity != "client" {
		t.Fatalf("expected client not found got %v", err)
	}
}

func TestSendProposal(t *testing.T) {
	db := setupServiceTestDB(t)
	client := seedClient(t, db)
	gen := &fakeGenerator{}
	svc := newTestService(db, gen)
	p := createTestProposal(t, svc, client.ID)

	res, err := svc.Send(p.ID)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if gen.proposalCalls != 1 {
		t.Fatalf("expected one document render got %d", gen.proposalCalls)
	}
	if !strings.HasPrefix(res.AccessLink, "http://test.local/client/proposal/") {
		t.Fatalf("unexpected link %s", res.AccessLink)
	}

	var reloaded models.Proposal
	if err := db.First(&reloaded, "id = ?", p.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.State != models.StateEnviada || reloaded.SentAt == nil || reloaded.ExpiresAt == nil {
		t.Fatalf("send did not stamp proposal: %+v", reloaded)
	}
	if got := reloaded.ExpiresAt.Sub(*reloaded.SentAt); got != 24*time.Hour {
		t.Fatalf("expected 24h window got %v", got)
	}

	var notifs []models.Notification
	if err := db.Where("proposal_id = ?", p.ID).Find(&notifs).Error; err != nil {
		t.Fatalf("notifs: %v", err)
	}
	if len(notifs) != 2 {
		t.Fatalf("expected ENVIO + AUDIT notifications got %d", len(notifs))
	}
	for _, n := range notifs {
		if n.Sent {
			t.Fatalf("notification must be recorded unsent: %+v", n)
		}
	}

	// Terminal states reject a re-send.
	if err := db.Model(&reloaded).Update("state", models.StateAceptada).Error; err != nil {
		t.Fatalf("force state: %v", err)
	}
	_, err = svc.Send(p.ID)
	var ise *InvalidStateError
	if !errors.As(err, &ise) {
		t.Fatalf("expected invalid state error got %v", err)
	}
}

func TestModifyProposal(t *testing.T) {
	db := setupServiceTestDB(t)
	client := seedClient(t, db)
	svc := newTestService(db, &fakeGenerator{})
	p := createTestProposal(t, svc, client.ID)

	res, err := svc.Modify(p.ID, ModifyInput{ProfitPercentage: 35, DirectorUser: "director"})
	if err != nil {
		t.Fatalf("modify: %v", err)
	}
	if res.NewVersion != 2 {
		t.Fatalf("expected version 2 got %d", res.NewVersion)
	}
	// 1000000 + 0 + 350000 rounded to the nearest thousand.
	if res.FinalPrice != 1350000 {
		t.Fatalf("expected 1350000 got %v", res.FinalPrice)
	}
	if len(res.Changes) == 0 || !strings.Contains(res.Changes[0], "30% → 35%") {
		t.Fatalf("unexpected changes %#v", res.Changes)
	}

	var reloaded models.Proposal
	if err := db.First(&reloaded, "id = ?", p.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.State != models.StateRevision || reloaded.Version != 2 {
		t.Fatalf("modify did not advance proposal: state=%s version=%d", reloaded.State, reloaded.Version)
	}

	var count int64
	db.Model(&models.ProposalVersion{}).Where("proposal_id = ?", p.ID).Count(&count)
	if count != 2 {
		t.Fatalf("expected 2 ledger rows got %d", count)
	}

	// Out of range leaves everything untouched.
	_, err = svc.Modify(p.ID, ModifyInput{ProfitPercentage: 40})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error got %v", err)
	}
	db.Model(&models.ProposalVersion{}).Where("proposal_id = ?", p.ID).Count(&count)
	if count != 2 {
		t.Fatalf("rejected modify must not append a ledger row, got %d", count)
	}
}

func TestModifyVersionConflict(t *testing.T) {
	db := setupServiceTestDB(t)
	client := seedClient(t, db)
	svc := newTestService(db, &fakeGenerator{})
	p := createTestProposal(t, svc, client.ID)

	// A writer landing between the read and the conditional update bumps the
	// version, so the update matches nothing and the transaction rolls back.
	raced := false
	err := db.Callback().Query().After("gorm:query").Register("race_writer", func(tx *gorm.DB) {
		if raced || tx.Statement.Table != "proposals" {
			return
		}
		raced = true
		tx.Session(&gorm.Session{NewDB: true}).Model(&models.Proposal{}).
			Where("id = ?", p.ID).Update("version", p.Version+1)
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	_, err = svc.Modify(p.ID, ModifyInput{ProfitPercentage: 33})
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected conflict error got %v", err)
	}

	var count int64
	db.Model(&models.ProposalVersion{}).Where("proposal_id = ?", p.ID).Count(&count)
	if count != 1 {
		t.Fatalf("lost race must not append a ledger row, got %d", count)
	}
}

func TestResolveToken(t *testing.T) {
	db := setupServiceTestDB(t)
	client := seedClient(t, db)
	svc := newTestService(db, &fakeGenerator{})
	p := createTestProposal(t, svc, client.ID)
	if _, err := svc.Send(p.ID); err != nil {
		t.Fatalf("send: %v", err)
	}
	var sent models.Proposal
	if err := db.First(&sent, "id = ?", p.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}

	got, err := svc.ResolveToken(sent.AccessToken)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.ID != p.ID || got.Client.Email != client.Email {
		t.Fatalf("resolved wrong proposal: %+v", got)
	}

	if _, err := svc.ResolveToken("nope"); err == nil {
		t.Fatal("expected not found for bogus token")
	}
}

func TestResolveTokenExpiredResetsState(t *testing.T) {
	db := setupServiceTestDB(t)
	client := seedClient(t, db)
	svc := newTestService(db, &fakeGenerator{})
	p := createTestProposal(t, svc, client.ID)
	if _, err := svc.Send(p.ID); err != nil {
		t.Fatalf("send: %v", err)
	}
	past := time.Now().UTC().Add(-time.Hour)
	if err := db.Model(&models.Proposal{}).Where("id = ?", p.ID).Update("expires_at", past).Error; err != nil {
		t.Fatalf("expire: %v", err)
	}
	var sent models.Proposal
	if err := db.First(&sent, "id = ?", p.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}

	got, err := svc.ResolveToken(sent.AccessToken)
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired got %v", err)
	}
	if got == nil || got.State != models.StatePregenerada {
		t.Fatalf("expired proposal must reset to PREGENERADA: %+v", got)
	}
	var reloaded models.Proposal
	if err := db.First(&reloaded, "id = ?", p.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.State != models.StatePregenerada {
		t.Fatalf("reset not persisted: %s", reloaded.State)
	}
}

func TestRespondAccept(t *testing.T) {
	db := setupServiceTestDB(t)
	client := seedClient(t, db)
	gen := &fakeGenerator{}
	svc := newTestService(db, gen)
	p := createTestProposal(t, svc, client.ID)
	if _, err := svc.Send(p.ID); err != nil {
		t.Fatalf("send: %v", err)
	}
	var sent models.Proposal
	if err := db.First(&sent, "id = ?", p.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}

	res, err := svc.Respond(sent.AccessToken, RespondInput{Type: models.ResponseAceptada, Comments: "OK"})
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if !res.ContractGenerated || res.ContractID == "" {
		t.Fatalf("expected a contract: %+v", res)
	}
	if gen.contractCalls != 1 {
		t.Fatalf("expected one contract render got %d", gen.contractCalls)
	}

	var reloaded models.Proposal
	if err := db.First(&reloaded, "id = ?", p.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.State != models.StateAceptada || reloaded.RespondedAt == nil {
		t.Fatalf("acceptance not recorded: %+v", reloaded)
	}

	var notif models.Notification
	if err := db.First(&notif, "proposal_id = ? AND type = ?", p.ID, models.NotifAceptacion).Error; err != nil {
		t.Fatalf("expected ACEPTACION notification: %v", err)
	}
	if notif.Recipient != "ops@test" {
		t.Fatalf("wrong recipient %s", notif.Recipient)
	}

	// A second response hits a terminal state.
	_, err = svc.Respond(sent.AccessToken, RespondInput{Type: models.ResponseRechazada})
	var ise *InvalidStateError
	if !errors.As(err, &ise) {
		t.Fatalf("expected invalid state got %v", err)
	}
}

func TestRespondAcceptContractFailureIsTolerated(t *testing.T) {
	db := setupServiceTestDB(t)
	client := seedClient(t, db)
	gen := &fakeGenerator{contractErr: errors.New("renderer down")}
	svc := newTestService(db, gen)
	p := createTestProposal(t, svc, client.ID)
	if _, err := svc.Send(p.ID); err != nil {
		t.Fatalf("send: %v", err)
	}
	var sent models.Proposal
	if err := db.First(&sent, "id = ?", p.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}

	res, err := svc.Respond(sent.AccessToken, RespondInput{Type: models.ResponseAceptada})
	if err != nil {
		t.Fatalf("acceptance must survive a contract failure: %v", err)
	}
	if res.ContractGenerated || res.ContractError == "" {
		t.Fatalf("expected reported contract failure: %+v", res)
	}
	var reloaded models.Proposal
	if err := db.First(&reloaded, "id = ?", p.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.State != models.StateAceptada {
		t.Fatalf("acceptance must still commit, got %s", reloaded.State)
	}
}

func TestRespondAcceptContractFailureDiscardsPartialWrites(t *testing.T) {
	db := setupServiceTestDB(t)
	client := seedClient(t, db)
	gen := &fakeGenerator{contractErr: errors.New("disk full"), contractPartial: true}
	svc := newTestService(db, gen)
	p := createTestProposal(t, svc, client.ID)
	if _, err := svc.Send(p.ID); err != nil {
		t.Fatalf("send: %v", err)
	}
	var sent models.Proposal
	if err := db.First(&sent, "id = ?", p.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}

	res, err := svc.Respond(sent.AccessToken, RespondInput{Type: models.ResponseAceptada})
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if res.ContractError == "" {
		t.Fatalf("expected reported contract failure: %+v", res)
	}

	// The savepoint rollback drops the half-written contract row while the
	// acceptance and its notification still commit.
	var docs int64
	db.Model(&models.GeneratedDocument{}).Where("proposal_id = ? AND type = ?", p.ID, models.DocContrato).Count(&docs)
	if docs != 0 {
		t.Fatalf("partial contract row must be discarded, got %d", docs)
	}
	var reloaded models.Proposal
	if err := db.First(&reloaded, "id = ?", p.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.State != models.StateAceptada {
		t.Fatalf("acceptance must still commit, got %s", reloaded.State)
	}
	var notif models.Notification
	if err := db.First(&notif, "proposal_id = ? AND type = ?", p.ID, models.NotifAceptacion).Error; err != nil {
		t.Fatalf("expected ACEPTACION notification: %v", err)
	}
}

func TestRespondExpiredPersistsReset(t *testing.T) {
	db := setupServiceTestDB(t)
	client := seedClient(t, db)
	svc := newTestService(db, &fakeGenerator{})
	p := createTestProposal(t, svc, client.ID)
	if _, err := svc.Send(p.ID); err != nil {
		t.Fatalf("send: %v", err)
	}
	past := time.Now().UTC().Add(-time.Hour)
	if err := db.Model(&models.Proposal{}).Where("id = ?", p.ID).Update("expires_at", past).Error; err != nil {
		t.Fatalf("expire: %v", err)
	}
	var sent models.Proposal
	if err := db.First(&sent, "id = ?", p.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}

	_, err := svc.Respond(sent.AccessToken, RespondInput{Type: models.ResponseAceptada})
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired got %v", err)
	}

	// The reset must survive the rejected response.
	var reloaded models.Proposal
	if err := db.First(&reloaded, "id = ?", p.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.State != models.StatePregenerada {
		t.Fatalf("expired respond must persist the reset, got %s", reloaded.State)
	}
	var responses int64
	db.Model(&models.ClientResponse{}).Where("proposal_id = ?", p.ID).Count(&responses)
	if responses != 0 {
		t.Fatalf("no response row may be recorded on an expired link, got %d", responses)
	}
}

func TestRespondRevisionNotifiesDirector(t *testing.T) {
	db := setupServiceTestDB(t)
	client := seedClient(t, db)
	svc := newTestService(db, &fakeGenerator{})
	p := createTestProposal(t, svc, client.ID)
	if _, err := svc.Send(p.ID); err != nil {
		t.Fatalf("send: %v", err)
	}
	var sent models.Proposal
	if err := db.First(&sent, "id = ?", p.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}

	if _, err := svc.Respond(sent.AccessToken, RespondInput{Type: models.ResponseRevision, Comments: "muy caro"}); err != nil {
		t.Fatalf("respond: %v", err)
	}
	var notif models.Notification
	if err := db.First(&notif, "proposal_id = ? AND type = ?", p.ID, models.NotifRevision).Error; err != nil {
		t.Fatalf("expected REVISION notification: %v", err)
	}
	if notif.Recipient != "dir@test" || !strings.Contains(notif.Message, "muy caro") {
		t.Fatalf("unexpected notification %+v", notif)
	}

	// REVISION is re-sendable, closing the renegotiation loop.
	if _, err := svc.Modify(p.ID, ModifyInput{ProfitPercentage: 27}); err != nil {
		t.Fatalf("modify after revision: %v", err)
	}
	if _, err := svc.Send(p.ID); err != nil {
		t.Fatalf("re-send after revision: %v", err)
	}
}

func TestRespondInvalidType(t *testing.T) {
	db := setupServiceTestDB(t)
	client := seedClient(t, db)
	svc := newTestService(db, &fakeGenerator{})
	p := createTestProposal(t, svc, client.ID)
	if _, err := svc.Send(p.ID); err != nil {
		t.Fatalf("send: %v", err)
	}
	var sent models.Proposal
	if err := db.First(&sent, "id = ?", p.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	_, err := svc.Respond(sent.AccessToken, RespondInput{Type: "QUIZAS"})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestSignContract(t *testing.T) {
	db := setupServiceTestDB(t)
	client := seedClient(t, db)
	gen := &fakeGenerator{}
	svc := newTestService(db, gen)
	p := createTestProposal(t, svc, client.ID)
	if _, err := svc.Send(p.ID); err != nil {
		t.Fatalf("send: %v", err)
	}
	var sent models.Proposal
	if err := db.First(&sent, "id = ?", p.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	res, err := svc.Respond(sent.AccessToken, RespondInput{Type: models.ResponseAceptada})
	if err != nil {
		t.Fatalf("respond: %v", err)
	}

	signRes, err := svc.SignContract(sent.AccessToken, res.ContractID, "Juan Pérez")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if gen.resignCalls != 1 || gen.lastSignature != "Juan Pérez" {
		t.Fatalf("contract not re-rendered with signature: %+v", gen)
	}
	if !strings.HasSuffix(signRes.ViewURL, "/documents/view/"+res.ContractID) {
		t.Fatalf("unexpected view url %s", signRes.ViewURL)
	}

	var doc models.GeneratedDocument
	if err := db.First(&doc, "id = ?", res.ContractID).Error; err != nil {
		t.Fatalf("doc: %v", err)
	}
	if !doc.Signed || doc.SignedAt == nil {
		t.Fatalf("document not marked signed: %+v", doc)
	}

	var notif models.Notification
	if err := db.First(&notif, "proposal_id = ? AND type = ?", p.ID, models.NotifFirma).Error; err != nil {
		t.Fatalf("expected FIRMA notification: %v", err)
	}
}

func TestSignContractRejectsProposalDocument(t *testing.T) {
	db := setupServiceTestDB(t)
	client := seedClient(t, db)
	svc := newTestService(db, &fakeGenerator{})
	p := createTestProposal(t, svc, client.ID)
	if _, err := svc.Send(p.ID); err != nil {
		t.Fatalf("send: %v", err)
	}
	var sent models.Proposal
	if err := db.First(&sent, "id = ?", p.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	var proposalDoc models.GeneratedDocument
	if err := db.First(&proposalDoc, "proposal_id = ? AND type = ?", p.ID, models.DocPropuesta).Error; err != nil {
		t.Fatalf("doc: %v", err)
	}

	_, err := svc.SignContract(sent.AccessToken, proposalDoc.ID, "X")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error got %v", err)
	}

	// A document belonging to another proposal is invisible through this token.
	other := models.GeneratedDocument{ProposalID: "someone-else", Type: models.DocContrato, Version: 1, Path: "x"}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("other doc: %v", err)
	}
	_, err = svc.SignContract(sent.AccessToken, other.ID, "X")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected not found got %v", err)
	}
}
