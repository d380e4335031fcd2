// Package scene loads collision geometry and spawn points from YAML.
package scene

import (
	"errors"
	"fmt"
	"os"

	"github.com/chewxy/math32"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/omnistep/internal/engine/camera"
	"github.com/Faultbox/omnistep/internal/engine/motion"
	"github.com/Faultbox/omnistep/internal/engine/spatial"
)

// ErrEmptyScene is returned when a scene has no collision geometry.
var ErrEmptyScene = errors.New("scene: no geometry")

// File is the YAML layout of a scene.
type File struct {
	Name    string      `yaml:"name"`
	Spawns  []SpawnDef  `yaml:"spawns"`
	Static  []Primitive `yaml:"static"`
	Dynamic []Collider  `yaml:"dynamic"`
}

// SpawnDef is a camera placement. Pitch is in degrees from straight down,
// so 90 looks at the horizon; yaw is in degrees with 0 facing +Y.
type SpawnDef struct {
	Name     string     `yaml:"name"`
	Position mgl32.Vec3 `yaml:"position"`
	Pitch    float32    `yaml:"pitch"`
	Yaw      float32    `yaml:"yaw"`
}

// Collider is a named dynamic primitive. Bob moves it along Axis as a sine
// of the given Amplitude and Period; Spin turns it about Z in degrees per
// second.
type Collider struct {
	Name      string     `yaml:"name"`
	Shape     Primitive  `yaml:",inline"`
	Position  mgl32.Vec3 `yaml:"position"`
	Axis      mgl32.Vec3 `yaml:"axis"`
	Amplitude float32    `yaml:"amplitude"`
	Period    float32    `yaml:"period"`
	Spin      float32    `yaml:"spin"`

	tris []spatial.Triangle
}

// Animated reports whether the collider moves over time.
func (c *Collider) Animated() bool {
	moves := c.Amplitude != 0 && c.Period > 0 && c.Axis.LenSqr() > 0
	drifts := c.Shape.Heightfield != nil && c.Shape.Heightfield.Drift != 0
	return moves || drifts || c.Spin != 0
}

// Transform returns the collider placement at time t in seconds.
func (c *Collider) Transform(t float64) mgl32.Mat4 {
	pos := c.Position
	if c.Amplitude != 0 && c.Period > 0 && c.Axis.LenSqr() > 0 {
		phase := float32(t) / c.Period * 2 * math32.Pi
		pos = pos.Add(c.Axis.Normalize().Mul(c.Amplitude * math32.Sin(phase)))
	}
	m := mgl32.Translate3D(pos[0], pos[1], pos[2])
	if c.Spin != 0 {
		m = m.Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(c.Spin * float32(t))))
	}
	return m
}

// Object returns the collider as a spatial object at time t. A drifting
// heightfield recomputes its triangles when fully evaluated.
func (c *Collider) Object(t float64) spatial.Object {
	o := spatial.Object{
		Name:      c.Name,
		Triangles: c.tris,
		Transform: c.Transform(t),
	}
	if hf := c.Shape.Heightfield; hf != nil && hf.Drift != 0 {
		o.Evaluate = func() []spatial.Triangle {
			return hf.at(hf.Drift * float32(t))
		}
	}
	return o
}

// Scene is a loaded scene ready to feed a spatial index and a controller.
type Scene struct {
	Name      string
	Static    []spatial.Triangle
	Spawns    []motion.Spawn
	Colliders []*Collider
}

// Load reads and builds a scene file.
func Load(path string, log *zap.Logger) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene: %w", err)
	}
	s, err := Parse(data, log)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return s, nil
}

// Parse builds a scene from YAML.
func Parse(data []byte, log *zap.Logger) (*Scene, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse scene: %w", err)
	}
	return Build(f, log)
}

// Build turns a scene description into triangles and spawn points.
func Build(f File, log *zap.Logger) (*Scene, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Scene{Name: f.Name}

	for i, p := range f.Static {
		sh, ok := p.shape()
		if !ok {
			return nil, fmt.Errorf("static entry %d: expected exactly one primitive", i)
		}
		s.Static = append(s.Static, sh.triangles()...)
	}

	faces := len(s.Static)
	for i := range f.Dynamic {
		c := f.Dynamic[i]
		if c.Name == "" {
			return nil, fmt.Errorf("dynamic entry %d: missing name", i)
		}
		sh, ok := c.Shape.shape()
		if !ok {
			return nil, fmt.Errorf("dynamic %q: expected exactly one primitive", c.Name)
		}
		c.tris = sh.triangles()
		faces += len(c.tris)
		s.Colliders = append(s.Colliders, &c)
	}
	if faces == 0 {
		return nil, ErrEmptyScene
	}

	for _, sp := range f.Spawns {
		s.Spawns = append(s.Spawns, motion.Spawn{
			Name:  sp.Name,
			World: camera.FromPitchYaw(sp.Position, mgl32.DegToRad(sp.Pitch), mgl32.DegToRad(sp.Yaw)),
		})
	}

	log.Info("scene loaded",
		zap.String("name", s.Name),
		zap.Int("static_faces", len(s.Static)),
		zap.Int("colliders", len(s.Colliders)),
		zap.Int("spawns", len(s.Spawns)))
	return s, nil
}

// Objects returns every dynamic collider placed at time t.
func (s *Scene) Objects(t float64) []spatial.Object {
	out := make([]spatial.Object, len(s.Colliders))
	for i, c := range s.Colliders {
		out[i] = c.Object(t)
	}
	return out
}

// Animated reports whether any collider moves over time.
func (s *Scene) Animated() bool {
	for _, c := range s.Colliders {
		if c.Animated() {
			return true
		}
	}
	return false
}

// Bounds returns the box around the static geometry.
func (s *Scene) Bounds() (cube.BBox, bool) {
	return bounds(s.Static)
}
