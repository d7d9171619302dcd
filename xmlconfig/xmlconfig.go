// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package xmlconfig parses the XML sample/source description file
// (§6): a materials table, a layered sample, and a source.
//
// This parser is built on encoding/xml rather than a third-party
// XML library: the input grammar is small and fixed, out of the
// simulation's core scope, and no XML or query engine appears
// anywhere in the retrieval pack this module is grounded on (see
// DESIGN.md).
package xmlconfig

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/js-arias/mcwalk/dist"
	"github.com/js-arias/mcwalk/mcerr"
	"github.com/js-arias/mcwalk/sample"
	"github.com/js-arias/mcwalk/source"
)

// wellKnown holds the built-in materials that may appear in a
// MLSample or layer without a matching <materials> declaration.
var wellKnown = map[string]sample.Material{
	"Air":                      {Ls: math.Inf(1), G: 0, N: 1.0},
	"Vacuum":                   {Ls: math.Inf(1), G: 0, N: 1.0},
	"GlassSlide":               {Ls: math.Inf(1), G: 0, N: 1.52},
	"NorlandOpticalAdhesive65": {Ls: math.Inf(1), G: 0, N: 1.524},
}

// xmlRoot mirrors the document structure described in §6.
type xmlRoot struct {
	XMLName   xml.Name       `xml:"mcwalk"`
	Materials []xmlMaterial  `xml:"materials"`
	Sample    xmlSample      `xml:"MLSample"`
	Source    xmlSource      `xml:"source"`
	Sim       xmlSimulation  `xml:"simulation"`
}

type xmlMaterial struct {
	Name string `xml:"name,attr"`
	Ls   string `xml:"ls,attr"`
	G    string `xml:"g,attr"`
	N    string `xml:"n,attr"`
}

type xmlSample struct {
	Left      string       `xml:"left,attr"`
	Right     string       `xml:"right,attr"`
	Prelayers []xmlLayer   `xml:"prelayer"`
	Layers    []xmlLayer   `xml:"layer"`
}

type xmlLayer struct {
	Material  string `xml:"material,attr"`
	Thickness string `xml:"thickness,attr"`
}

type xmlSource struct {
	RX       string `xml:"rx,attr"`
	RY       string `xml:"ry,attr"`
	RZ       string `xml:"rz,attr"`
	CosTheta string `xml:"cosTheta,attr"`
	Psi      string `xml:"psi,attr"`
	WalkTime string `xml:"walkTime,attr"`
}

type xmlSimulation struct {
	ShowTrajectory string `xml:"showTrajectory,attr"`
}

// A Config is the parsed result: the material table, the layered
// sample, the source, and the simulation flags.
type Config struct {
	Materials       map[string]sample.Material
	Sample          *sample.Sample
	Source          source.Source
	ShowTrajectory  bool
}

// Read parses the XML configuration file at path.
func Read(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &mcerr.Error{Kind: mcerr.IoFailure, Op: "xmlconfig.Read", Err: err}
	}
	defer f.Close()
	return Parse(f)
}

// Parse parses an XML configuration document from r.
func Parse(r io.Reader) (*Config, error) {
	var root xmlRoot
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&root); err != nil {
		return nil, &mcerr.Error{Kind: mcerr.ParseError, Op: "xmlconfig.Parse", Err: err}
	}

	materials := make(map[string]sample.Material, len(wellKnown)+len(root.Materials))
	for name, m := range wellKnown {
		materials[name] = m
	}
	for _, xm := range root.Materials {
		m, err := parseMaterial(xm)
		if err != nil {
			return nil, err
		}
		materials[xm.Name] = m
	}

	left, ok := materials[root.Sample.Left]
	if !ok {
		return nil, parseErr("xmlconfig.Parse", fmt.Errorf("unknown boundary material %q", root.Sample.Left))
	}
	right, ok := materials[root.Sample.Right]
	if !ok {
		return nil, parseErr("xmlconfig.Parse", fmt.Errorf("unknown boundary material %q", root.Sample.Right))
	}

	smp := sample.New(left, right)

	// prelayer children are added above layer 0 in reverse document
	// order (§6).
	for i := len(root.Sample.Prelayers) - 1; i >= 0; i-- {
		m, thick, err := resolveLayer(materials, root.Sample.Prelayers[i])
		if err != nil {
			return nil, err
		}
		if err := smp.Prelayer(m, thick); err != nil {
			return nil, &mcerr.Error{Kind: mcerr.ConfigInvalid, Op: "xmlconfig.Parse", Err: err}
		}
	}
	for _, xl := range root.Sample.Layers {
		m, thick, err := resolveLayer(materials, xl)
		if err != nil {
			return nil, err
		}
		if err := smp.Add(m, thick); err != nil {
			return nil, &mcerr.Error{Kind: mcerr.ConfigInvalid, Op: "xmlconfig.Parse", Err: err}
		}
	}

	src, err := parseSource(root.Source)
	if err != nil {
		return nil, err
	}

	return &Config{
		Materials:      materials,
		Sample:         smp,
		Source:         src,
		ShowTrajectory: strings.EqualFold(root.Sim.ShowTrajectory, "true"),
	}, nil
}

func resolveLayer(materials map[string]sample.Material, xl xmlLayer) (sample.Material, float64, error) {
	m, ok := materials[xl.Material]
	if !ok {
		return sample.Material{}, 0, parseErr("xmlconfig.Parse", fmt.Errorf("unknown material %q", xl.Material))
	}
	thick, err := strconv.ParseFloat(xl.Thickness, 64)
	if err != nil {
		return sample.Material{}, 0, parseErr("xmlconfig.Parse", fmt.Errorf("invalid thickness %q: %v", xl.Thickness, err))
	}
	return m, thick, nil
}

func parseMaterial(xm xmlMaterial) (sample.Material, error) {
	ls, err := strconv.ParseFloat(xm.Ls, 64)
	if err != nil {
		return sample.Material{}, parseErr("xmlconfig.Parse", fmt.Errorf("material %q: invalid ls %q: %v", xm.Name, xm.Ls, err))
	}
	g, err := strconv.ParseFloat(xm.G, 64)
	if err != nil {
		return sample.Material{}, parseErr("xmlconfig.Parse", fmt.Errorf("material %q: invalid g %q: %v", xm.Name, xm.G, err))
	}
	n, err := strconv.ParseFloat(xm.N, 64)
	if err != nil {
		return sample.Material{}, parseErr("xmlconfig.Parse", fmt.Errorf("material %q: invalid n %q: %v", xm.Name, xm.N, err))
	}
	return sample.Material{Ls: ls, G: g, N: n}, nil
}

// parseSource builds a source.Source from the six distribution
// attributes, each a recognized token (uniform_0_2pi, uniform_0_pi) or
// a numeric constant producing a Delta (§6).
func parseSource(xs xmlSource) (source.Source, error) {
	rx, err := parseDistribution(xs.RX)
	if err != nil {
		return source.Source{}, err
	}
	ry, err := parseDistribution(xs.RY)
	if err != nil {
		return source.Source{}, err
	}
	rz, err := parseDistribution(xs.RZ)
	if err != nil {
		return source.Source{}, err
	}
	cosTheta, err := parseDistribution(xs.CosTheta)
	if err != nil {
		return source.Source{}, err
	}
	psi, err := parseDistribution(xs.Psi)
	if err != nil {
		return source.Source{}, err
	}
	walkTime, err := parseDistribution(xs.WalkTime)
	if err != nil {
		return source.Source{}, err
	}
	return source.Source{
		RX: rx, RY: ry, RZ: rz,
		CosTheta: cosTheta, Psi: psi, WalkTime: walkTime,
	}, nil
}

func parseDistribution(token string) (dist.Sampler, error) {
	switch token {
	case "uniform_0_2pi":
		return dist.NewUniform(0, 2*math.Pi), nil
	case "uniform_0_pi":
		return dist.NewUniform(0, math.Pi), nil
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return dist.Sampler{}, parseErr("xmlconfig.parseDistribution", fmt.Errorf("unrecognized distribution token %q", token))
	}
	return dist.NewDelta(v), nil
}

func parseErr(op string, err error) error {
	return &mcerr.Error{Kind: mcerr.ParseError, Op: op, Err: err}
}
