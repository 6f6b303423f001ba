// Package theme owns the light/dark display mode and resolves typed,
// immutable style bundles for it.
//
// Integration example:
//
//	store := prefs.NewResilient(prefs.NewFileStore(""), log)
//	ctrl := theme.NewController(store, theme.PreferenceKey)
//	bundle, err := theme.Resolve(ctrl.Mode(), os.Getenv("TERM"))
//	if err != nil {
//		return err
//	}
//	nav.SetStyle(bundle.Nav)
//	toggle.SetLabel(ctrl.Label())
package theme
