package config

import (
	"io/ioutil"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Revision describes one container layout. Files carry no version field,
// so the revision is always chosen by the caller.
type Revision struct {
	Name     string   `yaml:"name"`
	Platform Platform `yaml:"platform"`

	// payload header field offsets
	SubObjectCount   uint32 `yaml:"subobject_count"`
	BoneCount        uint32 `yaml:"bone_count"`
	TextureCount     uint32 `yaml:"texture_count"`
	SubObjectPtr     uint32 `yaml:"subobject_ptr"`
	BonePtr          uint32 `yaml:"bone_ptr"`
	TexturePtr       uint32 `yaml:"texture_ptr"`
	ObjectGroupPtr   uint32 `yaml:"object_group_ptr"`
	ObjectGroupCount uint32 `yaml:"object_group_count"`

	BoneRecordSize uint32 `yaml:"bone_record_size"`
	HasRestMatrix  bool   `yaml:"has_rest_matrix"`

	SubObjectRecordSize uint32 `yaml:"subobject_record_size"`
	// used instead of SubObjectRecordSize when format marker says tangents present
	TangentSubObjectRecordSize uint32 `yaml:"tangent_subobject_record_size"`

	TextureRecordSize uint32 `yaml:"texture_record_size"`
}

const (
	REVISION_PS2        = "ps2"
	REVISION_PS2_LEGACY = "ps2-legacy"
	REVISION_XBOX       = "xbox"
)

// first word of xbox payload, selects tangent extended sub objects
const XBOX_TANGENT_FORMAT_MARKER = 16

const (
	PS2_BONE_RECORD_SIZE           = 0x50
	PS2_BONE_RECORD_WITH_REST_SIZE = 0x90
	XBOX_BONE_RECORD_SIZE          = 0x50

	PS2_SUBOBJECT_LEGACY_SIZE   = 0x40
	PS2_SUBOBJECT_SIZE          = 0xD0
	XBOX_SUBOBJECT_SIZE         = 0xB4
	XBOX_SUBOBJECT_TANGENT_SIZE = 0xB8

	TEXTURE_NAME_RECORD_SIZE     = 0x10
	TEXTURE_EXTENDED_RECORD_SIZE = 0x20
)

var (
	revisionsLock sync.RWMutex
	revisions     = map[string]*Revision{
		REVISION_PS2: {
			Name:                REVISION_PS2,
			Platform:            PS2,
			SubObjectCount:      0x10,
			BoneCount:           0x14,
			TextureCount:        0x18,
			SubObjectPtr:        0x1C,
			BonePtr:             0x20,
			TexturePtr:          0x24,
			ObjectGroupPtr:      0x28,
			ObjectGroupCount:    0x2C,
			BoneRecordSize:      PS2_BONE_RECORD_WITH_REST_SIZE,
			HasRestMatrix:       true,
			SubObjectRecordSize: PS2_SUBOBJECT_SIZE,
			TextureRecordSize:   TEXTURE_NAME_RECORD_SIZE,
		},
		REVISION_PS2_LEGACY: {
			Name:                REVISION_PS2_LEGACY,
			Platform:            PS2,
			SubObjectCount:      0x10,
			BoneCount:           0x14,
			TextureCount:        0x18,
			SubObjectPtr:        0x1C,
			BonePtr:             0x20,
			TexturePtr:          0x22,
			ObjectGroupPtr:      0x28,
			ObjectGroupCount:    0x2C,
			BoneRecordSize:      PS2_BONE_RECORD_SIZE,
			SubObjectRecordSize: PS2_SUBOBJECT_LEGACY_SIZE,
			TextureRecordSize:   TEXTURE_NAME_RECORD_SIZE,
		},
		REVISION_XBOX: {
			Name:                       REVISION_XBOX,
			Platform:                   Xbox,
			SubObjectCount:             0x10,
			SubObjectPtr:               0x14,
			BoneCount:                  0x18,
			TextureCount:               0x1C,
			BonePtr:                    0x20,
			TexturePtr:                 0x24,
			ObjectGroupPtr:             0x28,
			ObjectGroupCount:           0x2C,
			BoneRecordSize:             XBOX_BONE_RECORD_SIZE,
			SubObjectRecordSize:        XBOX_SUBOBJECT_SIZE,
			TangentSubObjectRecordSize: XBOX_SUBOBJECT_TANGENT_SIZE,
			TextureRecordSize:          TEXTURE_NAME_RECORD_SIZE,
		},
	}
)

// HeaderSize is the smallest payload able to hold every header field
func (r *Revision) HeaderSize() uint32 {
	size := uint32(0)
	for _, off := range []uint32{
		r.SubObjectCount, r.BoneCount, r.TextureCount, r.SubObjectPtr,
		r.BonePtr, r.TexturePtr, r.ObjectGroupPtr, r.ObjectGroupCount,
	} {
		if off+4 > size {
			size = off + 4
		}
	}
	return size
}

func (r *Revision) Validate() error {
	if r.Name == "" {
		return errors.New("Revision without name")
	}
	if r.Platform != PS2 && r.Platform != Xbox {
		return errors.Errorf("Revision %q: unknown platform", r.Name)
	}
	if r.BoneRecordSize < 0x34 {
		return errors.Errorf("Revision %q: bone record size 0x%x too small", r.Name, r.BoneRecordSize)
	}
	if r.HasRestMatrix && r.BoneRecordSize < PS2_BONE_RECORD_WITH_REST_SIZE {
		return errors.Errorf("Revision %q: bone record size 0x%x can't hold rest matrix", r.Name, r.BoneRecordSize)
	}
	switch r.Platform {
	case PS2:
		if r.SubObjectRecordSize < PS2_SUBOBJECT_LEGACY_SIZE {
			return errors.Errorf("Revision %q: sub object record size 0x%x too small", r.Name, r.SubObjectRecordSize)
		}
	case Xbox:
		if r.SubObjectRecordSize < XBOX_SUBOBJECT_SIZE {
			return errors.Errorf("Revision %q: sub object record size 0x%x too small", r.Name, r.SubObjectRecordSize)
		}
		if r.TangentSubObjectRecordSize != 0 && r.TangentSubObjectRecordSize < XBOX_SUBOBJECT_TANGENT_SIZE {
			return errors.Errorf("Revision %q: tangent sub object record size 0x%x too small", r.Name, r.TangentSubObjectRecordSize)
		}
	}
	if r.TextureRecordSize != TEXTURE_NAME_RECORD_SIZE && r.TextureRecordSize != TEXTURE_EXTENDED_RECORD_SIZE {
		return errors.Errorf("Revision %q: texture record size must be 0x10 or 0x20, got 0x%x", r.Name, r.TextureRecordSize)
	}
	return nil
}

func GetRevision(name string) (*Revision, error) {
	revisionsLock.RLock()
	defer revisionsLock.RUnlock()
	if r, ok := revisions[name]; ok {
		return r, nil
	}
	return nil, errors.Errorf("Unknown revision %q", name)
}

func DefaultRevision(p Platform) *Revision {
	name := REVISION_PS2
	if p == Xbox {
		name = REVISION_XBOX
	}
	r, _ := GetRevision(name)
	return r
}

func ListRevisions() []string {
	revisionsLock.RLock()
	defer revisionsLock.RUnlock()
	list := make([]string, 0, len(revisions))
	for name := range revisions {
		list = append(list, name)
	}
	sort.Strings(list)
	return list
}

func RegisterRevision(r *Revision) error {
	if err := r.Validate(); err != nil {
		return err
	}
	revisionsLock.Lock()
	defer revisionsLock.Unlock()
	revisions[r.Name] = r
	return nil
}

type revisionsFile struct {
	Revisions []*Revision `yaml:"revisions"`
}

func ParseRevisions(data []byte) ([]*Revision, error) {
	var rf revisionsFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, errors.Wrapf(err, "Failed to unmarshal revisions")
	}
	for _, r := range rf.Revisions {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}
	return rf.Revisions, nil
}

// LoadRevisions adds or overrides revisions from yaml file
func LoadRevisions(path string) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "Failed to read %q", path)
	}
	list, err := ParseRevisions(data)
	if err != nil {
		return errors.Wrapf(err, "In %q", path)
	}
	for _, r := range list {
		if err := RegisterRevision(r); err != nil {
			return err
		}
	}
	return nil
}
