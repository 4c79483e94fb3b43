package preprocess

import (
	"fmt"
	"image"

	"gopkg.in/yaml.v3"

	"github.com/wudi/scankit/imaging"
)

// Descriptor is one raw filter entry from the stage configuration:
// {type, enabled, filter-specific parameters}. Order in the pipeline list
// is the application order.
type Descriptor struct {
	Type    string
	Enabled bool

	node yaml.Node
}

func (d *Descriptor) UnmarshalYAML(node *yaml.Node) error {
	var head struct {
		Type    string `yaml:"type"`
		Enabled bool   `yaml:"enabled"`
	}
	if err := node.Decode(&head); err != nil {
		return err
	}
	d.Type = head.Type
	d.Enabled = head.Enabled
	d.node = *node
	return nil
}

func (d *Descriptor) params(out interface{}) error {
	if d.node.Kind == 0 {
		return nil
	}
	return d.node.Decode(out)
}

// Filter is one operation of the closed image-cleanup set.
type Filter interface {
	// Type is the configuration name, also used as the snapshot
	// subdirectory.
	Type() string
	Apply(img image.Image) (image.Image, error)
}

// Grayscale converts the image to 8-bit grayscale.
type Grayscale struct{}

func (Grayscale) Type() string { return "grayscale" }

func (Grayscale) Apply(img image.Image) (image.Image, error) {
	return imaging.Grayscale(img), nil
}

// Denoise applies a Gaussian blur with the configured kernel.
type Denoise struct {
	KernelWidth  int
	KernelHeight int
}

func (Denoise) Type() string { return "denoise" }

func (f Denoise) Apply(img image.Image) (image.Image, error) {
	return imaging.GaussianBlur(img, f.KernelWidth, f.KernelHeight)
}

// Threshold binarizes the image.
type Threshold struct {
	Params imaging.ThresholdParams
}

func (Threshold) Type() string { return "threshold" }

func (f Threshold) Apply(img image.Image) (image.Image, error) {
	return imaging.Threshold(img, f.Params)
}

// Deskew straightens the image.
type Deskew struct{}

func (Deskew) Type() string { return "deskew" }

func (Deskew) Apply(img image.Image) (image.Image, error) {
	return imaging.Deskew(img), nil
}

// Unrecognized stands in for a descriptor type outside the closed set.
// The chain skips it, keeping configs forward-compatible.
type Unrecognized struct {
	Name string
}

func (f Unrecognized) Type() string { return f.Name }

func (Unrecognized) Apply(img image.Image) (image.Image, error) {
	return img, nil
}

// compileFilter resolves one descriptor into its typed filter.
func compileFilter(d Descriptor) (Filter, error) {
	switch d.Type {
	case "grayscale":
		return Grayscale{}, nil

	case "denoise":
		p := struct {
			KernelSize []int `yaml:"kernel_size"`
		}{}
		if err := d.params(&p); err != nil {
			return nil, fmt.Errorf("denoise parameters: %w", err)
		}
		if len(p.KernelSize) == 0 {
			p.KernelSize = []int{5, 5}
		}
		if len(p.KernelSize) != 2 {
			return nil, fmt.Errorf("denoise kernel_size wants two values, got %d", len(p.KernelSize))
		}
		return Denoise{KernelWidth: p.KernelSize[0], KernelHeight: p.KernelSize[1]}, nil

	case "threshold":
		p := struct {
			Method    string  `yaml:"method"`
			BlockSize int     `yaml:"block_size"`
			C         float64 `yaml:"c"`
			Threshold int     `yaml:"threshold"`
		}{
			BlockSize: 11,
			C:         2,
			Threshold: 127,
		}
		if err := d.params(&p); err != nil {
			return nil, fmt.Errorf("threshold parameters: %w", err)
		}
		method, err := imaging.ParseThresholdMethod(p.Method)
		if err != nil {
			return nil, err
		}
		return Threshold{Params: imaging.ThresholdParams{
			Method:    method,
			BlockSize: p.BlockSize,
			C:         p.C,
			Value:     p.Threshold,
		}}, nil

	case "deskew":
		return Deskew{}, nil
	}
	return Unrecognized{Name: d.Type}, nil
}
