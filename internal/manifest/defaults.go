package manifest

// Names of the built-in vendor tasks and groups.
const (
	TaskScripts = "vendor-js"
	TaskStyles  = "vendor-css"
	TaskFonts   = "vendor-fonts"
	TaskMaps    = "vendor-map"

	GroupVendor = "vendor"
)

// DefaultStaticRoot is where the web application serves its static files from.
const DefaultStaticRoot = "muxltiproducer/static/muxltiproducer"

// Default returns the built-in manifest used when a project has no
// manifest file. The file lists and their order are part of the output
// contract: all.js and all.css are the byte concatenation of exactly
// these files.
func Default() *Manifest {
	return &Manifest{
		StaticRoot: DefaultStaticRoot,
		Tasks: []TaskSpec{
			{
				Name:   TaskScripts,
				Bundle: "all.js",
				Dest:   "vendor",
				Sources: []string{
					"node_modules/bootstrap/dist/js/bootstrap.bundle.min.js",
					"node_modules/@mux/upchunk/dist/upchunk.js",
					"node_modules/video.js/dist/video.min.js",
					"node_modules/@streamroot/videojs-hlsjs-plugin/videojs-hlsjs-plugin.js",
					"node_modules/videojs-hotkeys/videojs.hotkeys.min.js",
				},
			},
			{
				Name:   TaskStyles,
				Bundle: "all.css",
				Dest:   "vendor",
				Sources: []string{
					"node_modules/bootstrap/dist/css/bootstrap.min.css",
					"node_modules/video.js/dist/video-js.min.css",
					"node_modules/@videojs/themes/dist/city/index.css",
					"node_modules/bootstrap-icons/font/bootstrap-icons.css",
				},
			},
			{
				Name: TaskFonts,
				Dest: "vendor/fonts",
				Sources: []string{
					"node_modules/bootstrap-icons/font/fonts/bootstrap-icons.woff",
					"node_modules/bootstrap-icons/font/fonts/bootstrap-icons.woff2",
				},
			},
			{
				Name: TaskMaps,
				Dest: "vendor",
				Sources: []string{
					"node_modules/bootstrap/dist/css/bootstrap.min.css.map",
					"node_modules/@mux/upchunk/dist/upchunk.js.map",
				},
			},
		},
		Groups: map[string]GroupSpec{
			GroupVendor:   {Tasks: []string{TaskScripts, TaskStyles, TaskFonts, TaskMaps}},
			DefaultTarget: {Tasks: []string{GroupVendor}},
		},
	}
}
