package types

import "encoding/xml"

// Project is the exportable description of a game.
// Resource paths are plain strings so the exporter can rewrite them in place.
type Project struct {
	XMLName                xml.Name         `json:"-" yaml:"-" xml:"Project"`
	Name                   string           `json:"name" yaml:"name" xml:"name,attr"`
	Author                 string           `json:"author,omitempty" yaml:"author,omitempty" xml:"author,attr,omitempty"`
	WindowWidth            int              `json:"windowWidth,omitempty" yaml:"windowWidth,omitempty" xml:"windowWidth,attr,omitempty"`
	WindowHeight           int              `json:"windowHeight,omitempty" yaml:"windowHeight,omitempty" xml:"windowHeight,attr,omitempty"`
	WinIconFile            string           `json:"winIconFile,omitempty" yaml:"winIconFile,omitempty" xml:"winIconFile,attr,omitempty"`
	UseExternalSourceFiles bool             `json:"useExternalSourceFiles,omitempty" yaml:"useExternalSourceFiles,omitempty" xml:"useExternalSourceFiles,attr,omitempty"`
	UsedExtensions         []string         `json:"usedExtensions,omitempty" yaml:"usedExtensions,omitempty" xml:"Extensions>Extension"`
	Resources              []Resource       `json:"resources,omitempty" yaml:"resources,omitempty" xml:"Resources>Resource"`
	LoadingScreen          LoadingScreen    `json:"loadingScreen" yaml:"loadingScreen" xml:"LoadingScreen"`
	GlobalObjects          []Object         `json:"globalObjects,omitempty" yaml:"globalObjects,omitempty" xml:"GlobalObjects>Object"`
	Scenes                 []Scene          `json:"scenes" yaml:"scenes" xml:"Scenes>Scene"`
	ExternalEvents         []ExternalEvents `json:"externalEvents,omitempty" yaml:"externalEvents,omitempty" xml:"ExternalEvents>ExternalEvents"`
}

// Resource is an entry of the project resource manager
type Resource struct {
	Name   string `json:"name" yaml:"name" xml:"name,attr"`
	Kind   string `json:"kind,omitempty" yaml:"kind,omitempty" xml:"kind,attr,omitempty"`
	File   string `json:"file,omitempty" yaml:"file,omitempty" xml:"file,attr,omitempty"`
	Smooth bool   `json:"smooth,omitempty" yaml:"smooth,omitempty" xml:"smooth,attr,omitempty"`
	NoFile bool   `json:"noFile,omitempty" yaml:"noFile,omitempty" xml:"-"`
}

// UseFile reports whether the resource is backed by a file on disk
func (r Resource) UseFile() bool {
	return !r.NoFile && r.File != ""
}

// LoadingScreen describes what is displayed while the game loads
type LoadingScreen struct {
	Enabled     bool   `json:"enabled" yaml:"enabled" xml:"enabled,attr"`
	ShowText    bool   `json:"showText,omitempty" yaml:"showText,omitempty" xml:"showText,attr,omitempty"`
	Text        string `json:"text,omitempty" yaml:"text,omitempty" xml:"text,attr,omitempty"`
	ImageFile   string `json:"imageFile,omitempty" yaml:"imageFile,omitempty" xml:"imageFile,attr,omitempty"`
	SmoothImage bool   `json:"smoothImage,omitempty" yaml:"smoothImage,omitempty" xml:"smoothImage,attr,omitempty"`
	Width       int32  `json:"width,omitempty" yaml:"width,omitempty" xml:"width,attr,omitempty"`
	Height      int32  `json:"height,omitempty" yaml:"height,omitempty" xml:"height,attr,omitempty"`
}

// Scene is one level or screen of the project
type Scene struct {
	Name           string   `json:"name" yaml:"name" xml:"name,attr"`
	Profiling      bool     `json:"profiling,omitempty" yaml:"profiling,omitempty" xml:"profiling,attr,omitempty"`
	InitialObjects []Object `json:"objects,omitempty" yaml:"objects,omitempty" xml:"Objects>Object"`
	Events         []Event  `json:"events,omitempty" yaml:"events,omitempty" xml:"Events>Event"`
}

// Object is an object declaration. Files lists every resource file it references.
type Object struct {
	Name  string   `json:"name" yaml:"name" xml:"name,attr"`
	Type  string   `json:"type,omitempty" yaml:"type,omitempty" xml:"type,attr,omitempty"`
	Files []string `json:"files,omitempty" yaml:"files,omitempty" xml:"File"`
}

// ExternalEvents is a named event sheet shared between scenes
type ExternalEvents struct {
	Name   string  `json:"name" yaml:"name" xml:"name,attr"`
	Events []Event `json:"events,omitempty" yaml:"events,omitempty" xml:"Events>Event"`
}

// Event is a node of an event tree
type Event struct {
	Type       string        `json:"type,omitempty" yaml:"type,omitempty" xml:"type,attr,omitempty"`
	Disabled   bool          `json:"disabled,omitempty" yaml:"disabled,omitempty" xml:"disabled,attr,omitempty"`
	Conditions []Instruction `json:"conditions,omitempty" yaml:"conditions,omitempty" xml:"Conditions>Instruction"`
	Actions    []Instruction `json:"actions,omitempty" yaml:"actions,omitempty" xml:"Actions>Instruction"`
	SubEvents  []Event       `json:"subEvents,omitempty" yaml:"subEvents,omitempty" xml:"SubEvents>Event"`
}

// Instruction is a condition or an action
type Instruction struct {
	Type       string      `json:"type" yaml:"type" xml:"type,attr"`
	Inverted   bool        `json:"inverted,omitempty" yaml:"inverted,omitempty" xml:"inverted,attr,omitempty"`
	Parameters []Parameter `json:"parameters,omitempty" yaml:"parameters,omitempty" xml:"Parameter"`
}

// Parameter is an instruction argument. Kind tells whether Value names a resource file.
type Parameter struct {
	Kind  string `json:"kind,omitempty" yaml:"kind,omitempty" xml:"kind,attr,omitempty"`
	Value string `json:"value" yaml:"value" xml:",chardata"`
}

// IsFile reports whether the parameter value is a resource file path
func (p Parameter) IsFile() bool {
	switch p.Kind {
	case "file", "image", "sound", "music", "font", "video":
		return true
	}
	return false
}
