package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"yowbook/internal/config"
	"yowbook/internal/db"
	"yowbook/internal/personality"
)

// BuildCatalog parses the engine strings file and decodes every
// personality it names.
func BuildCatalog(ctx context.Context, cfg config.Config, log *zap.Logger) ([]personality.Profile, error) {
	f, err := os.Open(cfg.EngineCfgPath)
	if err != nil {
		return nil, fmt.Errorf("open engine config: %w", err)
	}
	defer f.Close()

	engines, err := personality.ParseEngineStrings(f)
	if err != nil {
		return nil, err
	}
	dec := personality.NewDecoder(cfg.PersonalitiesDir, cfg.SubstitutionTable(), log)
	return personality.NewBuilder(dec, engines, cfg.OverrideTable(), log).Build(ctx)
}

// ImportCatalog stores profiles. With replace the stored catalog becomes
// exactly profiles; otherwise each profile is upserted and entries missing
// from profiles are kept. It returns the catalog size afterwards.
func ImportCatalog(ctx context.Context, store *db.Store, profiles []personality.Profile, replace bool) (int, error) {
	rows := make([]db.Personality, 0, len(profiles))
	for _, p := range profiles {
		row, err := rowFromProfile(p)
		if err != nil {
			return 0, err
		}
		rows = append(rows, row)
	}

	if replace {
		if err := store.ReplacePersonalities(ctx, rows); err != nil {
			return 0, fmt.Errorf("import catalog: %w", err)
		}
	} else {
		for _, row := range rows {
			if err := store.UpsertPersonality(ctx, row); err != nil {
				return 0, fmt.Errorf("merge personality %s: %w", row.Name, err)
			}
		}
	}
	return store.CountPersonalities(ctx)
}

func rowFromProfile(p personality.Profile) (db.Personality, error) {
	raw := p.Raw
	if raw == nil {
		raw = []int32{}
	}
	rawJSON, err := json.Marshal(raw)
	if err != nil {
		return db.Personality{}, fmt.Errorf("encode raw params of %s: %w", p.Name, err)
	}
	params := p.Params
	if params == nil {
		params = map[string]string{}
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return db.Personality{}, fmt.Errorf("encode engine params of %s: %w", p.Name, err)
	}
	return db.Personality{
		Name:         p.Name,
		Version:      p.Version,
		Rating:       p.Rating,
		Book:         p.Book,
		Face:         p.Face,
		Summary:      p.Summary,
		Bio:          p.Bio,
		Style:        p.Style,
		RawParams:    string(rawJSON),
		EngineParams: string(paramsJSON),
		Ponder:       p.Ponder,
	}, nil
}
