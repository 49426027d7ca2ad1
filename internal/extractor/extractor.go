// Package extractor pulls the entity graph out of racecard documents:
// courses, people, horses, pedigree and ancestors, deduplicated across
// the batch. Horses not yet in the warehouse are enriched with their
// pro document before the batch is handed to the repositories.
package extractor

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/racing-sync/internal/metrics"
	"github.com/yourusername/racing-sync/internal/models"
	"github.com/yourusername/racing-sync/internal/parse"
	"github.com/yourusername/racing-sync/internal/racingapi"
	"github.com/yourusername/racing-sync/internal/repository"
)

const (
	// Enrichment failures are remembered for a day so a horse whose pro
	// document keeps erroring does not burn an API call every chunk.
	enrichFailureTTL = 24 * time.Hour
	// Ancestor name lookups are stable; cache hits for an hour.
	nameLookupTTL = time.Hour
)

// Entities is the deduplicated output of one extraction pass, ordered
// for dependency-safe persistence: people and horses before pedigree,
// pedigree before runners.
type Entities struct {
	Courses   []models.Course
	Jockeys   []models.Jockey
	Trainers  []models.Trainer
	Owners    []models.Owner
	Horses    []models.Horse
	Pedigrees []models.HorsePedigree
	Sires     []models.Ancestor
	Dams      []models.Ancestor
	Damsires  []models.Ancestor

	HorsesDiscovered int
	HorsesEnriched   int
}

// Extractor builds Entities from racecard documents.
type Extractor struct {
	client racingapi.Client
	horses repository.HorseRepository
	logger *logrus.Logger

	failedEnrichments *cache.Cache
	nameLookups       *cache.Cache
}

// New creates an extractor. The caches are per-process so repeated
// chunks in one backfill run share them.
func New(client racingapi.Client, horses repository.HorseRepository, logger *logrus.Logger) *Extractor {
	return &Extractor{
		client:            client,
		horses:            horses,
		logger:            logger,
		failedEnrichments: cache.New(enrichFailureTTL, 2*enrichFailureTTL),
		nameLookups:       cache.New(nameLookupTTL, 2*nameLookupTTL),
	}
}

// Extract dedups the entity graph of a batch of racecards and enriches
// horses the warehouse has not seen before. Enrichment failures keep
// the base horse row; they never fail the batch.
func (e *Extractor) Extract(ctx context.Context, cards []racingapi.RacecardDoc) (*Entities, error) {
	b := newBatch()
	for _, card := range cards {
		b.addCard(card)
		for _, runner := range card.Runners {
			b.addRunner(runner)
		}
	}

	entities := b.collect()

	if err := e.enrich(ctx, entities); err != nil {
		return nil, err
	}
	absorbEnrichedAncestors(entities)
	e.resolveAncestors(ctx, entities)

	// Enrichment can be the first source of pedigree ids, so rows with
	// none at all are only dropped now.
	kept := entities.Pedigrees[:0]
	for _, p := range entities.Pedigrees {
		if p.HasAnyID() {
			kept = append(kept, p)
		}
	}
	entities.Pedigrees = kept

	return entities, nil
}

// enrich fetches pro documents for horses with no warehouse row yet.
func (e *Extractor) enrich(ctx context.Context, entities *Entities) error {
	ids := make([]string, 0, len(entities.Horses))
	for _, h := range entities.Horses {
		ids = append(ids, h.ID)
	}

	existing, err := e.horses.ExistingHorseIDs(ctx, ids)
	if err != nil {
		return err
	}

	pedigreeByHorse := make(map[string]*models.HorsePedigree, len(entities.Pedigrees))
	for i := range entities.Pedigrees {
		pedigreeByHorse[entities.Pedigrees[i].HorseID] = &entities.Pedigrees[i]
	}

	for i := range entities.Horses {
		h := &entities.Horses[i]
		if existing[h.ID] {
			continue
		}
		entities.HorsesDiscovered++

		if _, failed := e.failedEnrichments.Get(h.ID); failed {
			continue
		}

		doc, err := e.client.HorsePro(ctx, h.ID)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.failedEnrichments.SetDefault(h.ID, true)
			e.logger.WithError(err).WithField("horse_id", h.ID).
				Warn("Horse enrichment failed, keeping base record")
			continue
		}

		applyEnrichment(h, pedigreeByHorse[h.ID], doc)
		entities.HorsesEnriched++
		metrics.HorsesEnrichedTotal.Inc()
	}

	return nil
}

// absorbEnrichedAncestors gives ancestor ids that only surfaced through
// enrichment their own rows, so every sire/dam/damsire id on a horse
// has a matching ancestor record.
func absorbEnrichedAncestors(entities *Entities) {
	entities.Sires = withPedigreeAncestors(entities.Sires, entities.Pedigrees,
		func(p *models.HorsePedigree) (*string, *string) { return p.SireID, p.SireName })
	entities.Dams = withPedigreeAncestors(entities.Dams, entities.Pedigrees,
		func(p *models.HorsePedigree) (*string, *string) { return p.DamID, p.DamName })
	entities.Damsires = withPedigreeAncestors(entities.Damsires, entities.Pedigrees,
		func(p *models.HorsePedigree) (*string, *string) { return p.DamsireID, p.DamsireName })
}

func withPedigreeAncestors(ancestors []models.Ancestor, pedigrees []models.HorsePedigree, pick func(*models.HorsePedigree) (*string, *string)) []models.Ancestor {
	seen := make(map[string]bool, len(ancestors))
	for _, a := range ancestors {
		seen[a.ID] = true
	}
	for i := range pedigrees {
		id, name := pick(&pedigrees[i])
		if id == nil || *id == "" || seen[*id] {
			continue
		}
		seen[*id] = true
		a := models.Ancestor{ID: *id, Region: pedigrees[i].Region}
		if name != nil {
			a.Name = *name
		}
		ancestors = append(ancestors, a)
	}
	return ancestors
}

// applyEnrichment overlays the pro document onto a base horse row and
// its pedigree entry. The document is authoritative for the fields it
// carries; blanks leave the base values alone.
func applyEnrichment(h *models.Horse, pedigree *models.HorsePedigree, doc *racingapi.HorseProDoc) {
	if dob := parse.Date(doc.Dob); dob != nil {
		h.DOB = dob
	}
	if s := parse.Str(doc.Sex); s != nil {
		h.Sex = s
	}
	if s := parse.Str(doc.SexCode); s != nil {
		h.SexCode = s
	}
	if s := parse.Str(doc.Colour); s != nil {
		h.Colour = s
	}
	if s := parse.Str(doc.Region); s != nil {
		h.Region = s
	}
	if s := parse.Str(doc.SireID); s != nil {
		h.SireID = s
	}
	if s := parse.Str(doc.DamID); s != nil {
		h.DamID = s
	}
	if s := parse.Str(doc.DamsireID); s != nil {
		h.DamsireID = s
	}
	h.Enriched = true

	if pedigree == nil {
		return
	}
	if s := parse.Str(doc.Breeder); s != nil {
		pedigree.Breeder = s
	}
	if s := parse.Str(doc.SireID); s != nil {
		pedigree.SireID = s
	}
	if s := parse.Str(doc.Sire); s != nil {
		pedigree.SireName = s
	}
	if s := parse.Str(doc.DamID); s != nil {
		pedigree.DamID = s
	}
	if s := parse.Str(doc.Dam); s != nil {
		pedigree.DamName = s
	}
	if s := parse.Str(doc.DamsireID); s != nil {
		pedigree.DamsireID = s
	}
	if s := parse.Str(doc.Damsire); s != nil {
		pedigree.DamsireName = s
	}
	if s := parse.Str(doc.Region); s != nil {
		pedigree.Region = s
	}
}

// resolveAncestors links ancestors to their own horse rows by name.
// Foreign stallions legitimately never resolve; a miss is cached and
// not an error.
func (e *Extractor) resolveAncestors(ctx context.Context, entities *Entities) {
	for _, group := range [][]models.Ancestor{entities.Sires, entities.Dams, entities.Damsires} {
		for i := range group {
			a := &group[i]
			if a.HorseID != nil || a.Name == "" {
				continue
			}
			if id := e.lookupByName(ctx, a.Name, a.Region); id != "" {
				a.HorseID = &id
			}
		}
	}
}

func (e *Extractor) lookupByName(ctx context.Context, name string, region *string) string {
	key := strings.ToLower(name)
	if region != nil {
		key += "|" + strings.ToLower(*region)
	}
	if cached, ok := e.nameLookups.Get(key); ok {
		return cached.(string)
	}

	id, err := e.horses.LookupHorseIDByName(ctx, name, region)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			e.logger.WithError(err).WithField("name", name).Warn("Ancestor lookup failed")
			return ""
		}
		id = ""
	}

	e.nameLookups.SetDefault(key, id)
	return id
}

// batch accumulates deduplicated entities keyed by id. The first
// non-empty name seen for an id wins; later blanks never overwrite it.
type batch struct {
	courses   map[string]*models.Course
	jockeys   map[string]*models.Jockey
	trainers  map[string]*models.Trainer
	owners    map[string]*models.Owner
	horses    map[string]*models.Horse
	pedigrees map[string]*models.HorsePedigree
	sires     map[string]*models.Ancestor
	dams      map[string]*models.Ancestor
	damsires  map[string]*models.Ancestor
}

func newBatch() *batch {
	return &batch{
		courses:   make(map[string]*models.Course),
		jockeys:   make(map[string]*models.Jockey),
		trainers:  make(map[string]*models.Trainer),
		owners:    make(map[string]*models.Owner),
		horses:    make(map[string]*models.Horse),
		pedigrees: make(map[string]*models.HorsePedigree),
		sires:     make(map[string]*models.Ancestor),
		dams:      make(map[string]*models.Ancestor),
		damsires:  make(map[string]*models.Ancestor),
	}
}

// addCard captures the course a racecard ran at. Cards carry only the
// course id, name and region code; the full course sweep fills in the
// rest.
func (b *batch) addCard(card racingapi.RacecardDoc) {
	id := strings.TrimSpace(card.CourseID)
	if id == "" {
		return
	}
	c, ok := b.courses[id]
	if !ok {
		c = &models.Course{ID: id}
		b.courses[id] = c
	}
	if c.Name == "" {
		c.Name = strings.TrimSpace(card.Course)
	}
	if c.RegionCode == "" {
		c.RegionCode = strings.TrimSpace(card.Region)
	}
}

func (b *batch) addRunner(r racingapi.RunnerDoc) {
	if id := strings.TrimSpace(r.JockeyID); id != "" {
		j, ok := b.jockeys[id]
		if !ok {
			j = &models.Jockey{ID: id}
			b.jockeys[id] = j
		}
		if j.Name == "" {
			j.Name = strings.TrimSpace(r.Jockey)
		}
	}

	if id := strings.TrimSpace(r.TrainerID); id != "" {
		t, ok := b.trainers[id]
		if !ok {
			t = &models.Trainer{ID: id}
			b.trainers[id] = t
		}
		if t.Name == "" {
			t.Name = strings.TrimSpace(r.Trainer)
		}
		if t.Location == nil {
			t.Location = parse.Str(r.TrainerLocation)
		}
	}

	if id := strings.TrimSpace(r.OwnerID); id != "" {
		o, ok := b.owners[id]
		if !ok {
			o = &models.Owner{ID: id}
			b.owners[id] = o
		}
		if o.Name == "" {
			o.Name = strings.TrimSpace(r.Owner)
		}
	}

	b.addHorse(r)
	b.addAncestors(r)
}

func (b *batch) addHorse(r racingapi.RunnerDoc) {
	id := strings.TrimSpace(r.HorseID)
	if id == "" {
		return
	}

	h, ok := b.horses[id]
	if !ok {
		h = &models.Horse{ID: id}
		b.horses[id] = h
	}
	if h.Name == "" {
		h.Name = strings.TrimSpace(r.Horse)
	}
	if h.DOB == nil {
		h.DOB = parse.Date(r.Dob)
	}
	if h.Sex == nil {
		h.Sex = parse.Str(r.Sex)
	}
	if h.Colour == nil {
		h.Colour = parse.Str(r.Colour)
	}
	if h.Region == nil {
		h.Region = parse.Str(r.Region)
	}
	if h.SireID == nil {
		h.SireID = parse.Str(r.SireID)
	}
	if h.DamID == nil {
		h.DamID = parse.Str(r.DamID)
	}
	if h.DamsireID == nil {
		h.DamsireID = parse.Str(r.DamsireID)
	}

	p, ok := b.pedigrees[id]
	if !ok {
		p = &models.HorsePedigree{HorseID: id}
		b.pedigrees[id] = p
	}
	if p.SireID == nil {
		p.SireID = parse.Str(r.SireID)
	}
	if p.SireName == nil {
		p.SireName = parse.Str(r.Sire)
	}
	if p.DamID == nil {
		p.DamID = parse.Str(r.DamID)
	}
	if p.DamName == nil {
		p.DamName = parse.Str(r.Dam)
	}
	if p.DamsireID == nil {
		p.DamsireID = parse.Str(r.DamsireID)
	}
	if p.DamsireName == nil {
		p.DamsireName = parse.Str(r.Damsire)
	}
	if p.Region == nil {
		p.Region = parse.Str(r.Region)
	}
}

func (b *batch) addAncestors(r racingapi.RunnerDoc) {
	addAncestor(b.sires, r.SireID, r.Sire)
	addAncestor(b.dams, r.DamID, r.Dam)
	addAncestor(b.damsires, r.DamsireID, r.Damsire)
}

func addAncestor(m map[string]*models.Ancestor, id, name string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return
	}
	a, ok := m[id]
	if !ok {
		a = &models.Ancestor{ID: id}
		m[id] = a
	}
	if a.Name == "" {
		a.Name = strings.TrimSpace(name)
	}
}

// collect flattens the maps into slices with a stable id order so
// batches are deterministic.
func (b *batch) collect() *Entities {
	e := &Entities{}
	for _, id := range sortedKeys(b.courses) {
		e.Courses = append(e.Courses, *b.courses[id])
	}
	for _, id := range sortedKeys(b.jockeys) {
		e.Jockeys = append(e.Jockeys, *b.jockeys[id])
	}
	for _, id := range sortedKeys(b.trainers) {
		e.Trainers = append(e.Trainers, *b.trainers[id])
	}
	for _, id := range sortedKeys(b.owners) {
		e.Owners = append(e.Owners, *b.owners[id])
	}
	for _, id := range sortedKeys(b.horses) {
		e.Horses = append(e.Horses, *b.horses[id])
	}
	for _, id := range sortedKeys(b.pedigrees) {
		e.Pedigrees = append(e.Pedigrees, *b.pedigrees[id])
	}
	for _, id := range sortedKeys(b.sires) {
		e.Sires = append(e.Sires, *b.sires[id])
	}
	for _, id := range sortedKeys(b.dams) {
		e.Dams = append(e.Dams, *b.dams[id])
	}
	for _, id := range sortedKeys(b.damsires) {
		e.Damsires = append(e.Damsires, *b.damsires[id])
	}
	return e
}

func sortedKeys[V any](m map[string]*V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
