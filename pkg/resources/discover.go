package resources

import (
	"github.com/gdexport/gdexport/pkg/types"
)

// Discover exposes every resource file referenced by project and rewrites each
// reference to its destination file name. The project is modified in place, so
// callers pass the export snapshot, never the live project.
func Discover(project *types.Project, m *Map) {
	VisitPaths(project, m.ExposePath)
}

// VisitPaths calls visit with a pointer to every resource file reference of
// project, so that visit may rewrite it. Empty references are skipped.
//
// Order: resource manager entries backed by a file, the loading screen image, each
// scene's initial objects and events, external events, global objects.
func VisitPaths(project *types.Project, visit func(*string)) {
	for i := range project.Resources {
		if project.Resources[i].UseFile() {
			visit(&project.Resources[i].File)
		}
	}
	if project.LoadingScreen.ImageFile != "" {
		visit(&project.LoadingScreen.ImageFile)
	}

	for i := range project.Scenes {
		scene := &project.Scenes[i]
		visitObjects(scene.InitialObjects, visit)
		visitEvents(scene.Events, visit)
	}
	for i := range project.ExternalEvents {
		visitEvents(project.ExternalEvents[i].Events, visit)
	}
	visitObjects(project.GlobalObjects, visit)
}

func visitObjects(objects []types.Object, visit func(*string)) {
	for i := range objects {
		for j := range objects[i].Files {
			if objects[i].Files[j] != "" {
				visit(&objects[i].Files[j])
			}
		}
	}
}

func visitEvents(events []types.Event, visit func(*string)) {
	for i := range events {
		visitInstructions(events[i].Conditions, visit)
		visitInstructions(events[i].Actions, visit)
		visitEvents(events[i].SubEvents, visit)
	}
}

func visitInstructions(instructions []types.Instruction, visit func(*string)) {
	for i := range instructions {
		params := instructions[i].Parameters
		for j := range params {
			if params[j].IsFile() && params[j].Value != "" {
				visit(&params[j].Value)
			}
		}
	}
}
