package services

import (
	"context"
	"fmt"

	"github.com/dailies-studio/dailies-engine/pkg/apperrors"
	"github.com/dailies-studio/dailies-engine/pkg/models"
)

// fakeTxRunner satisfies database.TxRunner without a database: fn runs
// directly and commits are implicit.
type fakeTxRunner struct{}

func (fakeTxRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (fakeTxRunner) WithPool(ctx context.Context) context.Context { return ctx }

// mockProfileRepo is an in-memory ProviderProfileRepository.
type mockProfileRepo struct {
	profiles []*models.ProviderProfile
	seq      int
}

func (m *mockProfileRepo) nextID() string {
	m.seq++
	return fmt.Sprintf("01PROFILE%017d", m.seq)
}

func (m *mockProfileRepo) Create(_ context.Context, p *models.ProviderProfile) error {
	if p.ID == "" {
		p.ID = m.nextID()
	}
	cp := *p
	m.profiles = append(m.profiles, &cp)
	return nil
}

func (m *mockProfileRepo) GetByID(_ context.Context, id string) (*models.ProviderProfile, error) {
	for _, p := range m.profiles {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound(apperrors.CodeProviderProfileNotFound, "provider profile "+id+" not found")
}

func (m *mockProfileRepo) GetGlobalDefault(_ context.Context) (*models.ProviderProfile, error) {
	for _, p := range m.profiles {
		if p.IsGlobalDefault {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound(apperrors.CodeProviderProfileNotFound, "no global default provider profile")
}

func (m *mockProfileRepo) ListRecent(_ context.Context, limit int) ([]models.ProviderProfile, error) {
	out := make([]models.ProviderProfile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, *p)
	}
	// Descending by updated_at, then id, mirroring the SQL ordering.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0; j-- {
			a, b := out[j-1], out[j]
			if b.UpdatedAt > a.UpdatedAt || (b.UpdatedAt == a.UpdatedAt && b.ID > a.ID) {
				out[j-1], out[j] = b, a
			}
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockProfileRepo) Update(_ context.Context, p *models.ProviderProfile) error {
	for i, existing := range m.profiles {
		if existing.ID == p.ID {
			cp := *p
			m.profiles[i] = &cp
			return nil
		}
	}
	return apperrors.NotFound(apperrors.CodeProviderProfileNotFound, "provider profile "+p.ID+" not found")
}

func (m *mockProfileRepo) ClearGlobalDefault(_ context.Context) error {
	for _, p := range m.profiles {
		p.IsGlobalDefault = false
	}
	return nil
}

// mockCharacterRepo is an in-memory CharacterRepository.
type mockCharacterRepo struct {
	characters []*models.Character
	seq        int
}

func (m *mockCharacterRepo) Create(_ context.Context, c *models.Character) error {
	m.seq++
	if c.ID == "" {
		c.ID = fmt.Sprintf("01CHAR%020d", m.seq)
	}
	cp := *c
	m.characters = append(m.characters, &cp)
	return nil
}

func (m *mockCharacterRepo) GetByID(_ context.Context, id string) (*models.Character, error) {
	for _, c := range m.characters {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound(apperrors.CodeCharacterNotFound, "character "+id+" not found")
}

func (m *mockCharacterRepo) List(_ context.Context, limit, offset int) ([]models.Character, error) {
	out := make([]models.Character, 0, len(m.characters))
	for _, c := range m.characters {
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockCharacterRepo) Update(_ context.Context, c *models.Character) error {
	for i, existing := range m.characters {
		if existing.ID == c.ID {
			cp := *c
			m.characters[i] = &cp
			return nil
		}
	}
	return apperrors.NotFound(apperrors.CodeCharacterNotFound, "character "+c.ID+" not found")
}

// mockRefSetRepo is an in-memory RefSetRepository.
type mockRefSetRepo struct {
	sets []*models.CharacterRefSet
	seq  int
}

func (m *mockRefSetRepo) Insert(_ context.Context, s *models.CharacterRefSet) error {
	for _, existing := range m.sets {
		if existing.CharacterID == s.CharacterID && existing.Version == s.Version {
			return apperrors.Conflict(apperrors.CodeConflict, "duplicate ref set version")
		}
	}
	m.seq++
	if s.ID == "" {
		s.ID = fmt.Sprintf("01REFSET%018d", m.seq)
	}
	cp := *s
	m.sets = append(m.sets, &cp)
	return nil
}

func (m *mockRefSetRepo) GetByID(_ context.Context, id string) (*models.CharacterRefSet, error) {
	for _, s := range m.sets {
		if s.ID == id {
			cp := *s
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound(apperrors.CodeRefSetNotFound, "ref set "+id+" not found")
}

func (m *mockRefSetRepo) ListByCharacter(_ context.Context, characterID string) ([]models.CharacterRefSet, error) {
	var out []models.CharacterRefSet
	for _, s := range m.sets {
		if s.CharacterID == characterID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockRefSetRepo) MaxVersion(_ context.Context, characterID string) (int, error) {
	max := 0
	for _, s := range m.sets {
		if s.CharacterID == characterID && s.Version > max {
			max = s.Version
		}
	}
	return max, nil
}

// mockLinkRepo is an in-memory LinkRepository using the same effective
// fold as the real one.
type mockLinkRepo struct {
	links   []models.Link
	seq     int
	failRel string // relations whose inserts fail, for degrade tests
}

func (m *mockLinkRepo) Insert(_ context.Context, srcType, srcID, dstType, dstID, rel string, meta *string) (string, error) {
	if rel == "" || len(rel) >= len(models.UnlinkPrefix) && rel[:len(models.UnlinkPrefix)] == models.UnlinkPrefix {
		return "", apperrors.Validation(apperrors.CodeBadRequest, "reserved relation")
	}
	if m.failRel != "" && rel == m.failRel {
		return "", fmt.Errorf("simulated link write failure")
	}
	return m.insertRaw(srcType, srcID, dstType, dstID, rel, meta), nil
}

func (m *mockLinkRepo) insertRaw(srcType, srcID, dstType, dstID, rel string, meta *string) string {
	m.seq++
	l := models.Link{
		ID:        fmt.Sprintf("01LINK%020d", m.seq),
		SrcType:   srcType,
		SrcID:     srcID,
		DstType:   dstType,
		DstID:     dstID,
		Rel:       rel,
		MetaJSON:  meta,
		CreatedAt: fmt.Sprintf("2026-01-01T00:00:%02dZ", m.seq%60),
	}
	m.links = append(m.links, l)
	return l.ID
}

func (m *mockLinkRepo) Tombstone(_ context.Context, linkID, srcType, srcID string) (string, error) {
	for _, l := range m.links {
		if l.ID != linkID {
			continue
		}
		if l.SrcType != srcType || l.SrcID != srcID {
			return "", apperrors.NotFound(apperrors.CodeNotFound, "link not found for source")
		}
		if l.IsTombstone() {
			return "", apperrors.Conflict(apperrors.CodeConflict, "already a tombstone")
		}
		return m.insertRaw(l.SrcType, l.SrcID, l.DstType, l.DstID, models.UnlinkPrefix+l.Rel, nil), nil
	}
	return "", apperrors.NotFound(apperrors.CodeNotFound, "link not found")
}

func (m *mockLinkRepo) GetByID(_ context.Context, linkID string) (*models.Link, error) {
	for _, l := range m.links {
		if l.ID == linkID {
			cp := l
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound(apperrors.CodeNotFound, "link not found")
}

func (m *mockLinkRepo) ListBySource(_ context.Context, srcType, srcID string) ([]models.Link, error) {
	var out []models.Link
	for _, l := range m.links {
		if l.SrcType == srcType && l.SrcID == srcID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockLinkRepo) ListByDestination(_ context.Context, dstType, dstID string) ([]models.Link, error) {
	var out []models.Link
	for _, l := range m.links {
		if l.DstType == dstType && l.DstID == dstID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockLinkRepo) EffectiveEdges(ctx context.Context, srcType, srcID string) ([]models.EffectiveEdge, error) {
	links, _ := m.ListBySource(ctx, srcType, srcID)
	return models.EffectiveEdges(links), nil
}

func (m *mockLinkRepo) CountEdges(ctx context.Context, srcType, srcID, dstType, rel string) (int, error) {
	edges, _ := m.EffectiveEdges(ctx, srcType, srcID)
	n := 0
	for _, e := range edges {
		if e.DstType == dstType && e.Rel == rel {
			n++
		}
	}
	return n, nil
}

// mockAssetRepo is an in-memory AssetRepository.
type mockAssetRepo struct {
	assets []*models.Asset
	seq    int
}

func (m *mockAssetRepo) Create(_ context.Context, a *models.Asset) error {
	m.seq++
	if a.ID == "" {
		a.ID = fmt.Sprintf("01ASSET%019d", m.seq)
	}
	if a.CreatedAt == "" {
		a.CreatedAt = "2026-01-01T00:00:00Z"
	}
	cp := *a
	m.assets = append(m.assets, &cp)
	return nil
}

func (m *mockAssetRepo) GetByID(_ context.Context, id string) (*models.Asset, error) {
	for _, a := range m.assets {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound(apperrors.CodeNotFound, "asset "+id+" not found")
}

func (m *mockAssetRepo) List(_ context.Context, includeDeleted bool, limit, offset int) ([]models.Asset, error) {
	var out []models.Asset
	for _, a := range m.assets {
		if !includeDeleted && a.Deleted() {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (m *mockAssetRepo) ListDeleted(_ context.Context) ([]models.Asset, error) {
	var out []models.Asset
	for _, a := range m.assets {
		if a.Deleted() {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockAssetRepo) SoftDelete(_ context.Context, id string) error {
	for _, a := range m.assets {
		if a.ID == id && !a.Deleted() {
			deleted := "2026-01-02T00:00:00Z"
			a.DeletedAt = &deleted
			return nil
		}
	}
	return apperrors.NotFound(apperrors.CodeNotFound, "asset not found or already deleted")
}

func (m *mockAssetRepo) HardDelete(_ context.Context, id string) error {
	for i, a := range m.assets {
		if a.ID == id && a.Deleted() {
			m.assets = append(m.assets[:i], m.assets[i+1:]...)
			return nil
		}
	}
	return apperrors.Conflict(apperrors.CodeConflict, "asset not in trash")
}

// mockRunRepo is an in-memory RunRepository.
type mockRunRepo struct {
	packs  []*models.PromptPack
	runs   []*models.Run
	events []*models.RunEvent
	seq    int
}

func (m *mockRunRepo) next(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s%0*d", prefix, 26-len(prefix), m.seq)
}

func (m *mockRunRepo) InsertPromptPack(_ context.Context, p *models.PromptPack) error {
	p.ID = m.next("01PACK")
	p.CreatedAt = fmt.Sprintf("2026-01-01T01:00:%02dZ", m.seq%60)
	cp := *p
	m.packs = append(m.packs, &cp)
	return nil
}

func (m *mockRunRepo) GetPromptPack(_ context.Context, id string) (*models.PromptPack, error) {
	for _, p := range m.packs {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound(apperrors.CodeNotFound, "prompt pack "+id+" not found")
}

func (m *mockRunRepo) InsertRun(_ context.Context, r *models.Run) error {
	r.ID = m.next("01RUN")
	r.CreatedAt = fmt.Sprintf("2026-01-01T01:00:%02dZ", m.seq%60)
	cp := *r
	m.runs = append(m.runs, &cp)
	return nil
}

func (m *mockRunRepo) GetRun(_ context.Context, id string) (*models.Run, error) {
	for _, r := range m.runs {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound(apperrors.CodeNotFound, "run "+id+" not found")
}

func (m *mockRunRepo) ListRuns(_ context.Context, limit, offset int) ([]models.Run, error) {
	var out []models.Run
	for _, r := range m.runs {
		out = append(out, *r)
	}
	return out, nil
}

func (m *mockRunRepo) InsertRunEvent(_ context.Context, e *models.RunEvent) error {
	e.EventID = m.next("01EVENT")
	e.CreatedAt = fmt.Sprintf("2026-01-01T02:00:%02dZ", m.seq%60)
	cp := *e
	m.events = append(m.events, &cp)
	return nil
}

func (m *mockRunRepo) ListRunEvents(_ context.Context, runID string) ([]models.RunEvent, error) {
	var out []models.RunEvent
	for _, e := range m.events {
		if e.RunID == runID {
			out = append(out, *e)
		}
	}
	return out, nil
}
