package forms

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

func isDefinitionFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// ParseDefinition reads one YAML form definition.
func ParseDefinition(content []byte) (*models.Form, error) {
	var form models.Form
	if err := yaml.Unmarshal(content, &form); err != nil {
		return nil, errors.Wrap(err, "invalid form definition")
	}
	return &form, nil
}

// ImportFile upserts the form defined in a YAML file by its handle.
func (s *Service) ImportFile(ctx context.Context, path string) (*models.Form, error) {
	ctx, span := tracing.StartSpan(ctx, "forms.ImportFile")
	defer span.End()

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	form, err := ParseDefinition(content)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}

	return s.Save(ctx, form)
}

// Import upserts every YAML definition in dir, in file name order. It stops
// at the first failing file.
func (s *Service) Import(ctx context.Context, dir string) ([]models.Form, error) {
	ctx, span := tracing.StartSpan(ctx, "forms.Import")
	defer span.End()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", dir)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && isDefinitionFile(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	imported := make([]models.Form, 0, len(names))
	for _, name := range names {
		form, err := s.ImportFile(ctx, filepath.Join(dir, name))
		if err != nil {
			return imported, err
		}
		imported = append(imported, *form)
	}
	return imported, nil
}

// Watch re-imports definition files in dir whenever they are written, until
// ctx is done. Failed imports are logged and do not stop the watch.
func (s *Service) Watch(ctx context.Context, dir string, onImport func(*models.Form)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create watcher")
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return errors.Wrapf(err, "failed to watch %s", dir)
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{"dir": dir}).Info("watching form definitions")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isDefinitionFile(event.Name) || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			form, err := s.ImportFile(ctx, event.Name)
			if err != nil {
				s.logger.WithContext(ctx).WithError(err).Errorf("failed to import %s", event.Name)
				continue
			}
			s.logger.WithContext(ctx).WithFields(map[string]any{
				"file":   event.Name,
				"handle": form.Handle,
			}).Info("imported form definition")
			if onImport != nil {
				onImport(form)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.WithContext(ctx).WithError(err).Error("form definition watcher failed")
		}
	}
}
