package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
)

type projectRow struct {
	Name          string `gorm:"primaryKey"`
	Type          string
	ImageDir      string
	Classes       datatypes.JSON
	KeypointNames datatypes.JSON
	Skeleton      datatypes.JSON
	UpdatedAt     time.Time
}

func (projectRow) TableName() string { return "projects" }

type imageRow struct {
	ProjectName string `gorm:"primaryKey"`
	ImageID     string `gorm:"primaryKey"`
	Position    int    `gorm:"index"`
	FileName    string
	Width       int
	Height      int
	Annotations datatypes.JSON
}

func (imageRow) TableName() string { return "images" }

// SQLiteStore keeps projects in a SQLite database, one row per project and
// one per image.
type SQLiteStore struct {
	db  *gorm.DB
	log zerolog.Logger
}

// OpenSQLite opens or creates the database at path and migrates its schema.
func OpenSQLite(path string, log zerolog.Logger) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        500,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite store: %w", err)
	}
	if err := db.AutoMigrate(&projectRow{}, &imageRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate SQLite store: %w", err)
	}
	l := log.With().Str("store", "sqlite").Logger()
	l.Info().Str("path", path).Msg("using SQLite project store")
	return &SQLiteStore{db: db, log: l}, nil
}

func marshalJSON(v any) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	return datatypes.JSON(b), err
}

func unmarshalJSON(data datatypes.JSON, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func (s *SQLiteStore) Load(ctx context.Context, name string) (*annotation.Project, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var row projectRow
	err := db.First(&row, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project %q: %w", name, err)
	}

	p := &annotation.Project{Name: row.Name, Type: annotation.Type(row.Type), ImageDir: row.ImageDir}
	if err := unmarshalJSON(row.Classes, &p.Classes); err != nil {
		return nil, fmt.Errorf("failed to decode classes of %q: %w", name, err)
	}
	if err := unmarshalJSON(row.KeypointNames, &p.KeypointNames); err != nil {
		return nil, fmt.Errorf("failed to decode keypoint names of %q: %w", name, err)
	}
	if err := unmarshalJSON(row.Skeleton, &p.Skeleton); err != nil {
		return nil, fmt.Errorf("failed to decode skeleton of %q: %w", name, err)
	}

	var images []imageRow
	if err := db.Where("project_name = ?", name).Order("position").Find(&images).Error; err != nil {
		return nil, fmt.Errorf("failed to load images of %q: %w", name, err)
	}
	p.Images = make([]*annotation.ImageRecord, 0, len(images))
	for _, img := range images {
		rec := &annotation.ImageRecord{ID: img.ImageID, FileName: img.FileName, Width: img.Width, Height: img.Height}
		if err := unmarshalJSON(img.Annotations, &rec.Annotations); err != nil {
			return nil, fmt.Errorf("failed to decode annotations of image %q: %w", img.ImageID, err)
		}
		if rec.Annotations == nil {
			rec.Annotations = []annotation.Annotation{}
		}
		p.Images = append(p.Images, rec)
	}
	s.log.Debug().Str("project", name).Int("images", len(p.Images)).Msg("project loaded")
	return p, nil
}

// Save replaces the stored project and all of its images in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, p *annotation.Project) error {
	if err := checkName(p.Name); err != nil {
		return err
	}

	row := projectRow{Name: p.Name, Type: string(p.Type), ImageDir: p.ImageDir, UpdatedAt: time.Now().UTC()}
	var err error
	if row.Classes, err = marshalJSON(p.Classes); err != nil {
		return fmt.Errorf("failed to encode classes: %w", err)
	}
	if row.KeypointNames, err = marshalJSON(p.KeypointNames); err != nil {
		return fmt.Errorf("failed to encode keypoint names: %w", err)
	}
	if row.Skeleton, err = marshalJSON(p.Skeleton); err != nil {
		return fmt.Errorf("failed to encode skeleton: %w", err)
	}

	images := make([]imageRow, 0, len(p.Images))
	for i, rec := range p.Images {
		snap := rec.Snapshot()
		anns, err := marshalJSON(snap.Annotations)
		if err != nil {
			return fmt.Errorf("failed to encode annotations of image %q: %w", rec.ID, err)
		}
		images = append(images, imageRow{
			ProjectName: p.Name,
			ImageID:     rec.ID,
			Position:    i,
			FileName:    rec.FileName,
			Width:       rec.Width,
			Height:      rec.Height,
			Annotations: anns,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
			return err
		}
		if err := tx.Where("project_name = ?", p.Name).Delete(&imageRow{}).Error; err != nil {
			return err
		}
		if len(images) == 0 {
			return nil
		}
		return tx.Create(&images).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save project %q: %w", p.Name, err)
	}

	p.MarkSaved()
	s.log.Debug().Str("project", p.Name).Int("images", len(images)).Msg("project saved")
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	names := []string{}
	if err := s.db.WithContext(ctx).Model(&projectRow{}).Order("name").Pluck("name", &names).Error; err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return names, nil
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
