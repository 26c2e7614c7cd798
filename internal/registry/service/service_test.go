package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/suite"

	"arefa/internal/assets"
	"arefa/internal/export/archive"
	"arefa/internal/export/document"
	"arefa/internal/export/filter"
	"arefa/internal/registry/models"
	"arefa/internal/registry/sheets"
	"arefa/internal/registry/store"
	dErrors "arefa/pkg/domain-errors"
	"arefa/pkg/requestcontext"
	"arefa/pkg/testutil"
)

type fakeDocuments struct {
	fail map[int64]bool
}

func (f *fakeDocuments) Render(_ context.Context, src document.Source, _ document.Layout) ([]byte, error) {
	if f.fail[src.ID] {
		return nil, errors.New("rasterization failed")
	}
	return []byte("%PDF-" + src.Name), nil
}

func (f *fakeDocuments) Download(ctx context.Context, w io.Writer, src document.Source, l document.Layout) (string, error) {
	pdf, err := f.Render(ctx, src, l)
	if err != nil {
		return "", err
	}
	_, err = w.Write(pdf)
	return document.FileName(src, l), err
}

type failingCreate[T any] struct {
	store.Store[T]
}

func (failingCreate[T]) Create(context.Context, T) error { return errors.New("disk full") }

type ServiceSuite struct {
	suite.Suite
	ctx       context.Context
	dir       string
	photos    *assets.Local
	docs      *fakeDocuments
	traderDB  *store.InMemory[*models.Trader]
	opDB      *store.InMemory[*models.Operator]
	traders   *Records[*models.Trader]
	operators *Records[*models.Operator]
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

var now = time.Date(2024, time.March, 5, 14, 0, 0, 0, time.UTC)

func (s *ServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), now)
	s.dir = s.T().TempDir()
	var err error
	s.photos, err = assets.NewLocal(s.dir)
	s.Require().NoError(err)
	s.docs = &fakeDocuments{fail: map[int64]bool{}}
	s.traderDB = store.NewInMemory[*models.Trader]()
	s.opDB = store.NewInMemory[*models.Operator]()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	builder := archive.NewBuilder(s.docs, s.photos, archive.WithLogger(logger))
	s.traders = NewRecords(sheets.Trader, store.TraderStore(s.traderDB), s.photos, s.docs, builder,
		WithLogger(logger), WithBatchSize(2))
	s.operators = NewRecords(sheets.Operator, store.OperatorStore(s.opDB), s.photos, s.docs, builder,
		WithLogger(logger), WithBatchSize(2))
}

func (s *ServiceSuite) files() []string {
	entries, err := os.ReadDir(s.dir)
	s.Require().NoError(err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func (s *ServiceSuite) TestCreateStampsAndStoresPhoto() {
	in := testutil.NewTrader("  Amani Bahati ", time.Time{})
	in.ID = 99
	in.PhotoIDPath = testutil.Ptr("forged.jpg")

	rec, err := s.traders.Create(s.ctx, in, &Upload{Filename: "id.PNG", ContentType: "image/png", Body: strings.NewReader("png")})
	s.Require().NoError(err)
	s.Equal(int64(1), rec.ID)
	s.Equal("Amani Bahati", rec.NomPrenom)
	s.True(now.Equal(rec.DateEnregistrement))
	s.Require().NotNil(rec.PhotoIDPath)
	s.True(strings.HasPrefix(*rec.PhotoIDPath, "cambiste-"))
	s.True(strings.HasSuffix(*rec.PhotoIDPath, ".PNG"))

	data, err := os.ReadFile(filepath.Join(s.dir, *rec.PhotoIDPath))
	s.Require().NoError(err)
	s.Equal("png", string(data))
}

func (s *ServiceSuite) TestCreateWithoutPhoto() {
	rec, err := s.operators.Create(s.ctx, testutil.NewOperator("Furaha", "", time.Time{}), nil)
	s.Require().NoError(err)
	s.Nil(rec.PhotoPath)
	s.Equal(models.StatutShop, rec.Statut)
}

func (s *ServiceSuite) TestCreateValidationStoresNothing() {
	bad := testutil.NewOperator("", models.StatutShop, time.Time{})
	_, err := s.operators.Create(s.ctx, bad, &Upload{Filename: "a.jpg", Body: strings.NewReader("x")})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.ErrorContains(err, "nomPrenom is required")
	s.Empty(s.files())

	bad = testutil.NewOperator("Furaha", "Kiosque", time.Time{})
	_, err = s.operators.Create(s.ctx, bad, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestCreateFailureRemovesUploadedPhoto() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewRecords(sheets.Operator, store.OperatorStore(failingCreate[*models.Operator]{s.opDB}), s.photos, s.docs, nil, WithLogger(logger))

	_, err := svc.Create(s.ctx, testutil.NewOperator("Furaha", models.StatutShop, time.Time{}),
		&Upload{Filename: "a.jpg", Body: strings.NewReader("x")})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Empty(s.files())
}

func (s *ServiceSuite) TestGetNotFound() {
	_, err := s.traders.Get(s.ctx, 42)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestUpdateKeepsServerFields() {
	created, err := s.traders.Create(s.ctx, testutil.NewTrader("Amani", time.Time{}),
		&Upload{Filename: "a.jpg", Body: strings.NewReader("x")})
	s.Require().NoError(err)
	photo := *created.PhotoIDPath

	later := requestcontext.WithTime(context.Background(), now.Add(48*time.Hour))
	edit := testutil.NewTrader("Amani Bahati", now.Add(48*time.Hour))
	edit.PhotoIDPath = nil
	edit.ChangeManuel = false

	got, err := s.traders.Update(later, created.ID, edit)
	s.Require().NoError(err)
	s.Equal(created.ID, got.ID)
	s.True(now.Equal(got.DateEnregistrement))
	s.Equal(photo, got.PhotoRef())

	stored, err := s.traders.Get(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("Amani Bahati", stored.NomPrenom)
	s.False(bool(stored.ChangeManuel))
	s.Equal(photo, stored.PhotoRef())
}

func (s *ServiceSuite) TestUpdateErrors() {
	_, err := s.traders.Update(s.ctx, 7, testutil.NewTrader("x", now))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	created, err := s.traders.Create(s.ctx, testutil.NewTrader("Amani", now), nil)
	s.Require().NoError(err)
	bad := testutil.NewTrader("Amani", now)
	bad.Telephone = " "
	_, err = s.traders.Update(s.ctx, created.ID, bad)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestDeleteCascadesPhoto() {
	created, err := s.traders.Create(s.ctx, testutil.NewTrader("Amani", now),
		&Upload{Filename: "a.jpg", Body: strings.NewReader("x")})
	s.Require().NoError(err)
	s.Len(s.files(), 1)

	s.Require().NoError(s.traders.Delete(s.ctx, created.ID))
	s.Empty(s.files())

	err = s.traders.Delete(s.ctx, created.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestDeleteSucceedsWhenPhotoIsGone() {
	created, err := s.operators.Create(s.ctx, testutil.NewOperator("Furaha", models.StatutShop, now),
		&Upload{Filename: "a.jpg", Body: strings.NewReader("x")})
	s.Require().NoError(err)
	s.Require().NoError(os.Remove(filepath.Join(s.dir, created.PhotoRef())))

	s.NoError(s.operators.Delete(s.ctx, created.ID))
	_, err = s.operators.Get(s.ctx, created.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestDocument() {
	created, err := s.traders.Create(s.ctx, testutil.NewTrader("Amani", now), nil)
	s.Require().NoError(err)

	var buf bytes.Buffer
	name, err := s.traders.Document(s.ctx, created.ID, &buf)
	s.Require().NoError(err)
	s.Equal("Fiche-Cambiste-1-AREFA.pdf", name)
	s.Equal("%PDF-Amani", buf.String())

	_, err = s.traders.Document(s.ctx, 404, &buf)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	s.docs.fail[created.ID] = true
	_, err = s.traders.Document(s.ctx, created.ID, &buf)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ServiceSuite) seedTraders(names ...string) {
	for i, name := range names {
		rec := testutil.NewTrader(name, time.Time{})
		ctx := requestcontext.WithTime(context.Background(), now.Add(time.Duration(i)*time.Minute))
		_, err := s.traders.Create(ctx, rec, nil)
		s.Require().NoError(err)
	}
}

func (s *ServiceSuite) TestPlan() {
	s.seedTraders("Amani A", "Bahati", "Amani B", "Amani C")

	plan, err := s.traders.Plan(s.ctx, filter.Criteria{Name: "amani"})
	s.Require().NoError(err)
	s.Equal(3, plan.Total)
	s.Equal(2, plan.BatchSize)
	s.Require().Len(plan.Batches, 2)
	s.Equal("Lot 1 (1 - 2)", plan.Batches[0].Label)
	s.Equal("Lot 2 (3 - 3)", plan.Batches[1].Label)

	plan, err = s.traders.Plan(s.ctx, filter.Criteria{Name: "nobody"})
	s.Require().NoError(err)
	s.Zero(plan.Total)
	s.Empty(plan.Batches)
}

func (s *ServiceSuite) TestCriteriaValidation() {
	for _, c := range []filter.Criteria{
		{Date: "05/03/2024"},
		{Activity: "monnaieInternationale"},
		{Category: models.StatutShop},
	} {
		_, err := s.traders.Plan(s.ctx, c)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest), "%+v", c)
	}
	s.NoError(s.operators.ValidateCriteria(filter.Criteria{Activity: "monnaieInternationale", Category: models.StatutPetiteCabine}))
	s.NoError(s.traders.ValidateCriteria(filter.Criteria{Activity: filter.ActivityAll, Category: filter.ActivityAll, Date: "2024-03-05"}))
}

func (s *ServiceSuite) TestExportLot() {
	s.seedTraders("Amani A", "Bahati", "Amani B", "Amani C")

	res, err := s.traders.Export(s.ctx, filter.Criteria{Name: "amani"}, 2)
	s.Require().NoError(err)
	s.Equal("Fiches_AREFA_Lot_2.zip", res.Name)
	s.Equal(1, res.Documents)

	zr, err := zip.NewReader(bytes.NewReader(res.Data), int64(len(res.Data)))
	s.Require().NoError(err)
	s.Require().Len(zr.File, 1)
	// Listing is newest first: Amani C, Amani B, then Amani A on lot 2.
	s.Equal("Fiches_AREFA_Lot_2/Fiche-1-Amani_A.pdf", zr.File[0].Name)
}

func (s *ServiceSuite) TestExportErrors() {
	_, err := s.traders.Export(s.ctx, filter.Criteria{}, 1)
	s.True(dErrors.HasCode(err, dErrors.CodeNoMatches))
	s.ErrorContains(err, "Aucune fiche ne correspond aux critères.")

	s.seedTraders("Amani")
	_, err = s.traders.Export(s.ctx, filter.Criteria{}, 2)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	_, err = s.traders.Export(s.ctx, filter.Criteria{}, 0)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	s.docs.fail[1] = true
	_, err = s.traders.Export(s.ctx, filter.Criteria{}, 1)
	s.True(dErrors.HasCode(err, dErrors.CodeEmptyArchive))
}

func (s *ServiceSuite) TestExportOperatorsByCategory() {
	for _, statut := range []string{models.StatutShop, models.StatutGrandeCabine, models.StatutShop} {
		_, err := s.operators.Create(s.ctx, testutil.NewOperator("Op "+statut, statut, now), nil)
		s.Require().NoError(err)
	}
	res, err := s.operators.Export(s.ctx, filter.Criteria{Category: models.StatutShop}, 1)
	s.Require().NoError(err)
	s.Equal("Lot_1_Operateurs.zip", res.Name)
	s.Equal(2, res.Documents)
}
