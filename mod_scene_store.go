package particlefx

import (
	"errors"
	"fmt"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

var ErrSceneNotFound = errors.New("scene not found")

const sceneStoreObject = "scenes"

// SceneStore keeps named scenes in per-user app data. Without a gdata
// manager it keeps them in memory only.
type SceneStore struct {
	data   *gdata.Manager
	memory map[string][]byte
}

func NewSceneStore(data *gdata.Manager) *SceneStore {
	return &SceneStore{
		data:   data,
		memory: make(map[string][]byte),
	}
}

// Persistent reports whether scenes outlive the process.
func (s *SceneStore) Persistent() bool { return s.data != nil }

func (s *SceneStore) Exists(name string) bool {
	if s.data == nil {
		_, ok := s.memory[name]
		return ok
	}
	return s.data.ObjectPropExists(sceneStoreObject, name)
}

func (s *SceneStore) Save(name string, scene *SceneDef) error {
	data, err := yaml.Marshal(scene)
	if err != nil {
		return fmt.Errorf("failed to marshal scene %s: %w", name, err)
	}
	if s.data == nil {
		s.memory[name] = data
		return nil
	}
	if err := s.data.SaveObjectProp(sceneStoreObject, name, data); err != nil {
		return fmt.Errorf("failed to save scene %s: %w", name, err)
	}
	return nil
}

func (s *SceneStore) Load(name string) (*SceneDef, error) {
	if !s.Exists(name) {
		return nil, fmt.Errorf("%w: %s", ErrSceneNotFound, name)
	}
	var (
		data []byte
		err  error
	)
	if s.data == nil {
		data = s.memory[name]
	} else {
		data, err = s.data.LoadObjectProp(sceneStoreObject, name)
		if err != nil {
			return nil, fmt.Errorf("failed to load scene %s: %w", name, err)
		}
	}

	scene := &SceneDef{}
	if err := yaml.Unmarshal(data, scene); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scene %s: %w", name, err)
	}
	return scene, nil
}

// SceneStoreModule installs a SceneStore under AppName. With Autosave set the
// named scene is respawned at startup and overwritten with the running
// effects on exit.
type SceneStoreModule struct {
	AppName  string
	Autosave string
	// Store replaces the gdata backed store.
	Store *SceneStore
}

type sceneAutosave struct {
	name     string
	restored bool
	saved    bool
}

func (mod SceneStoreModule) Install(app *App, cmd *Commands) {
	store := mod.Store
	if store == nil {
		appName := mod.AppName
		if appName == "" {
			appName = "particlefx"
		}
		data, err := gdata.Open(gdata.Config{AppName: appName})
		if err != nil {
			app.Logger().Warnf("Scene store: %v (scenes are kept in memory)", err)
			data = nil
		}
		store = NewSceneStore(data)
	}
	cmd.AddResources(store, &sceneAutosave{name: mod.Autosave})

	if mod.Autosave == "" {
		return
	}
	app.UseSystem(
		System(sceneRestoreSystem).
			InStage(Prelude),
	)
	app.UseSystem(
		System(sceneAutosaveSystem).
			InStage(Finale),
	)
}

func sceneRestoreSystem(state *sceneAutosave, store *SceneStore, fx *Particles, cmd *Commands) {
	if state.restored {
		return
	}
	state.restored = true
	if !store.Exists(state.name) {
		return
	}
	scene, err := store.Load(state.name)
	if err != nil {
		cmd.Logger().Errorf("%v", err)
		return
	}
	fx.Spawn(scene.Effects...)
	cmd.Logger().Infof("Restored scene %s (%d effects)", state.name, len(scene.Effects))
}

func sceneAutosaveSystem(state *sceneAutosave, store *SceneStore, fx *Particles, cmd *Commands) {
	if !cmd.Exiting() || state.saved {
		return
	}
	state.saved = true
	scene := fx.Snapshot()
	if len(scene.Effects) == 0 && fx.closed != nil {
		scene = fx.closed
	}
	if err := store.Save(state.name, scene); err != nil {
		cmd.Logger().Errorf("%v", err)
		return
	}
	cmd.Logger().Infof("Saved scene %s", state.name)
}
