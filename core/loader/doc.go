// Package loader registers HTTP features and mounts them on a Fiber router.
//
// A feature is anything with a name, an enabled switch and a Load hook:
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// Manager keeps features in registration order. LoadAll skips disabled
// features and stops at the first Load error, naming the feature in it.
//
//	mgr := loader.NewManager()
//	mgr.Register(manifest.NewFeature(svc))
//	if err := mgr.LoadAll(app); err != nil {
//	    return err
//	}
package loader
