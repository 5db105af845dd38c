package extract

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"curaextract/internal/config"
	"curaextract/internal/definition"
	"curaextract/internal/diagnostic"
	"curaextract/internal/inheritance"
	"curaextract/internal/logging"
	"curaextract/internal/manufacturer"
	"curaextract/internal/profile"
	"curaextract/internal/quality"
	"curaextract/internal/settings"
	"curaextract/internal/startup"
	"curaextract/internal/userdata"
)

// Version is reported in extraction metadata.
const Version = "2.1.0"

// Extractor resolves machines against one install tree and user-data root.
// It is safe for concurrent use; chain and manufacturer caches are shared by
// every call.
type Extractor struct {
	cfg       *config.Config
	overrides config.Overrides
	logger    *slog.Logger

	definitions *definition.FileRepository
	chains      *inheritance.Builder
	classifier  *manufacturer.Classifier
	locator     *quality.Locator

	now func() time.Time
}

// New validates the configured roots and returns an Extractor. A missing or
// unreadable root yields an error wrapping config.ErrMisconfigured.
func New(cfg *config.Config, logger *slog.Logger) (*Extractor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", config.ErrMisconfigured)
	}
	if err := cfg.RequireRoots(); err != nil {
		return nil, err
	}

	logger = logging.NewComponentLogger(logger, "extract")
	overrides := cfg.Overrides()
	definitions := definition.NewFileRepository(cfg.DefinitionsDir())

	return &Extractor{
		cfg:         cfg,
		overrides:   overrides,
		logger:      logger,
		definitions: definitions,
		chains:      inheritance.NewBuilder(definitions, logger),
		classifier:  manufacturer.NewClassifier(overrides.ExtraManufacturers),
		locator:     quality.NewLocator(cfg.QualityDir(), logger),
		now:         time.Now,
	}, nil
}

// Resolution is the complete, atomic result for one machine.
type Resolution struct {
	Machine      string
	Instance     *userdata.Instance
	Leaf         string
	Chain        *inheritance.Chain
	Manufacturer string
	Changes      *profile.Document
	Settings     settings.Map
	Startup      startup.Resolution
	QualityDirs  []string
	Diagnostics  []diagnostic.Diagnostic
}

// ResolveMachine resolves name end to end. It fails only when no instance
// file decodes to name or the instance file itself cannot be read.
func (e *Extractor) ResolveMachine(name string) (*Resolution, error) {
	diags := &diagnostic.List{}
	store := userdata.New(e.cfg.Paths.UserDataDir, e.logger, diags)
	return e.resolve(name, store)
}

func (e *Extractor) resolve(name string, store *userdata.Store) (*Resolution, error) {
	logger := e.logger.With(logging.String(logging.FieldMachine, name))

	instance, err := store.Machine(name)
	if err != nil {
		return nil, fmt.Errorf("resolve machine %q: %w", name, err)
	}

	leaf := instance.LeafDefinition()
	var extra []diagnostic.Diagnostic
	if leaf == "" {
		extra = append(extra, diagnostic.Diagnostic{
			Kind:    diagnostic.KindNotFound,
			Subject: name,
			Path:    instance.Path,
			Detail:  "instance declares no base definition (container 7 or metadata.definition)",
		})
		logging.WarnWithContext(logger, "machine has no base definition", "definition_missing",
			logging.String(logging.FieldPath, instance.Path),
			logging.String(logging.FieldImpact, "effective settings contain user changes only"))
	}

	chain := e.chains.Resolve(leaf)
	extra = append(extra, e.chainDiagnostics(chain)...)

	tag := e.classifier.ForMachine(name, chain.Names(), e.overrides.Manufacturer)
	logger.Debug("manufacturer classified",
		logging.Args(logging.DecisionAttrs("manufacturer", tag, manufacturerReason(e.overrides.Manufacturer, tag))...)...)

	changes := store.DefinitionChanges(instance.DefinitionChangesName())
	var layer settings.OverrideLayer
	if changes != nil {
		layer = settings.OverrideLayer(changes.Values())
	}
	effective := settings.Merge(chain, layer)

	sequences := startup.Resolve(chain, store.SettingsOverride(name),
		e.overrides.StartSequenceKey, e.overrides.EndSequenceKey)

	dirs := e.locator.LocateDirectories(tag, e.overrides.QualitySubdir)

	res := &Resolution{
		Machine:      name,
		Instance:     instance,
		Leaf:         leaf,
		Chain:        chain,
		Manufacturer: tag,
		Changes:      changes,
		Settings:     effective,
		Startup:      sequences,
		QualityDirs:  dirs,
	}
	res.Diagnostics = append(extra, store.Diagnostics().Items()...)

	logger.Info("machine resolved",
		logging.String("leaf", leaf),
		logging.Int("chain_length", chain.Len()),
		logging.String("manufacturer", tag),
		logging.Int("settings", len(effective)),
		logging.Int("diagnostics", len(res.Diagnostics)))
	return res, nil
}

func manufacturerReason(override, tag string) string {
	switch {
	case strings.TrimSpace(override) != "":
		return "explicit override"
	case tag == "":
		return "no rule matched the chain"
	default:
		return "matched definition chain"
	}
}

func (e *Extractor) chainDiagnostics(chain *inheritance.Chain) []diagnostic.Diagnostic {
	var out []diagnostic.Diagnostic
	if chain.Cycle != "" {
		out = append(out, diagnostic.Diagnostic{
			Kind:    diagnostic.KindCycle,
			Subject: chain.Cycle,
			Path:    e.definitions.PathFor(chain.Cycle),
			Detail:  chain.Err().Error(),
		})
	}
	if chain.TruncatedErr != nil && chain.Truncated != "" {
		out = append(out, diagnostic.FromError(chain.Truncated, e.definitions.PathFor(chain.Truncated), chain.TruncatedErr))
	}
	return out
}

// Chain resolves the inheritance chain of a definition name.
func (e *Extractor) Chain(definitionName string) *inheritance.Chain {
	return e.chains.Resolve(definitionName)
}

// Classify returns the manufacturer tag for a chain using the configured
// override and extra vendors.
func (e *Extractor) Classify(chain *inheritance.Chain) string {
	return e.classifier.Classify(chain.Names(), e.overrides.Manufacturer)
}

// Qualities locates and scans built-in presets for a manufacturer tag.
func (e *Extractor) Qualities(tag string) ([]string, quality.BuiltinResult) {
	dirs := e.locator.LocateDirectories(tag, e.overrides.QualitySubdir)
	return dirs, e.locator.ScanBuiltin(dirs)
}
