package schema

import (
	"encoding/xml"
	"io"
	"os"
	"strconv"
	"strings"

	fmi "github.com/wippyai/fmi-runtime"
	"github.com/wippyai/fmi-runtime/errors"
)

// ParseFile parses a modelDescription.xml from disk.
func ParseFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.ParseFailed("modelDescription.xml", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse parses a modelDescription.xml manifest, dispatching on the
// fmiVersion root attribute.
func Parse(r io.Reader) (*Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.ParseFailed("modelDescription.xml", err)
	}

	var sniff struct {
		FMIVersion string `xml:"fmiVersion,attr"`
	}
	if err := xml.Unmarshal(data, &sniff); err != nil {
		return nil, errors.ParseFailed("modelDescription.xml", err)
	}

	switch {
	case strings.HasPrefix(sniff.FMIVersion, "2."):
		return parseFMI2(data)
	case strings.HasPrefix(sniff.FMIVersion, "3."):
		return parseFMI3(data)
	default:
		return nil, errors.InvalidInput(errors.PhaseParse,
			"unsupported fmiVersion "+strconv.Quote(sniff.FMIVersion))
	}
}

// xmlExperiment is shared between versions; the attribute set is identical.
type xmlExperiment struct {
	StartTime *float64 `xml:"startTime,attr"`
	StopTime  *float64 `xml:"stopTime,attr"`
	Tolerance *float64 `xml:"tolerance,attr"`
	StepSize  *float64 `xml:"stepSize,attr"`
}

func (x *xmlExperiment) experiment() DefaultExperiment {
	if x == nil {
		return DefaultExperiment{}
	}
	return DefaultExperiment{
		StartTime: x.StartTime,
		StopTime:  x.StopTime,
		Tolerance: x.Tolerance,
		StepSize:  x.StepSize,
	}
}

// --- FMI 2.0 ---

type fmi2Doc struct {
	FMIVersion              string         `xml:"fmiVersion,attr"`
	ModelName               string         `xml:"modelName,attr"`
	GUID                    string         `xml:"guid,attr"`
	Description             string         `xml:"description,attr"`
	NumberOfEventIndicators int            `xml:"numberOfEventIndicators,attr"`
	ModelExchange           *fmi2Interface `xml:"ModelExchange"`
	CoSimulation            *fmi2Interface `xml:"CoSimulation"`
	DefaultExperiment       *xmlExperiment `xml:"DefaultExperiment"`
	ModelVariables          struct {
		Scalars []fmi2Scalar `xml:"ScalarVariable"`
	} `xml:"ModelVariables"`
	ModelStructure struct {
		Outputs         fmi2Unknowns `xml:"Outputs"`
		Derivatives     fmi2Unknowns `xml:"Derivatives"`
		InitialUnknowns fmi2Unknowns `xml:"InitialUnknowns"`
	} `xml:"ModelStructure"`
}

type fmi2Interface struct {
	ModelIdentifier                        string `xml:"modelIdentifier,attr"`
	ProvidesDirectionalDerivative          bool   `xml:"providesDirectionalDerivative,attr"`
	CanGetAndSetFMUstate                   bool   `xml:"canGetAndSetFMUstate,attr"`
	CanHandleVariableCommunicationStepSize bool   `xml:"canHandleVariableCommunicationStepSize,attr"`
}

type fmi2Scalar struct {
	Name           string        `xml:"name,attr"`
	ValueReference uint32        `xml:"valueReference,attr"`
	Description    string        `xml:"description,attr"`
	Causality      string        `xml:"causality,attr"`
	Variability    string        `xml:"variability,attr"`
	Initial        string        `xml:"initial,attr"`
	Real           *fmi2TypeElem `xml:"Real"`
	Integer        *fmi2TypeElem `xml:"Integer"`
	Boolean        *fmi2TypeElem `xml:"Boolean"`
	String         *fmi2TypeElem `xml:"String"`
	Enumeration    *fmi2TypeElem `xml:"Enumeration"`
}

type fmi2TypeElem struct {
	Start      string `xml:"start,attr"`
	Unit       string `xml:"unit,attr"`
	Derivative int    `xml:"derivative,attr"`
}

type fmi2Unknowns struct {
	Unknowns []struct {
		Index        int     `xml:"index,attr"`
		Dependencies *string `xml:"dependencies,attr"`
	} `xml:"Unknown"`
}

func parseFMI2(data []byte) (*Model, error) {
	var doc fmi2Doc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, errors.ParseFailed("FMI2 modelDescription.xml", err)
	}

	m := &Model{
		FMIVersion:         doc.FMIVersion,
		SpecVersion:        fmi.FMI2,
		Name:               doc.ModelName,
		Token:              doc.GUID,
		Description:        doc.Description,
		NumEventIndicators: doc.NumberOfEventIndicators,
		Experiment:         doc.DefaultExperiment.experiment(),
		deps:               make(map[fmi.ValueReference][]fmi.ValueReference),
	}
	if doc.ModelExchange != nil {
		m.ModelExchange = doc.ModelExchange.iface()
	}
	if doc.CoSimulation != nil {
		m.CoSimulation = doc.CoSimulation.iface()
	}

	for _, sv := range doc.ModelVariables.Scalars {
		v := Variable{
			Name:           sv.Name,
			Description:    sv.Description,
			Causality:      sv.Causality,
			Variability:    sv.Variability,
			Initial:        sv.Initial,
			ValueReference: fmi.ValueReference(sv.ValueReference),
		}
		switch {
		case sv.Real != nil:
			v.Type = fmi.TagFloat64
			v.Start = sv.Real.Start
			v.Unit = sv.Real.Unit
		case sv.Integer != nil:
			v.Type = fmi.TagInt32
			v.Start = sv.Integer.Start
		case sv.Boolean != nil:
			v.Type = fmi.TagBoolean
			v.Start = sv.Boolean.Start
		case sv.String != nil:
			v.Type = fmi.TagString
			v.Start = sv.String.Start
		case sv.Enumeration != nil:
			// Enumerations are transported as Integer on the wire.
			v.Type = fmi.TagInt32
			v.Start = sv.Enumeration.Start
		default:
			return nil, errors.New(errors.PhaseParse, errors.KindInvalidData).
				Detail("variable %q has no type element", sv.Name).Build()
		}
		m.Variables = append(m.Variables, v)
	}
	m.index()

	// FMI2 ModelStructure addresses variables by 1-based declaration index.
	indexToVR := func(idx int) (fmi.ValueReference, bool) {
		if idx < 1 || idx > len(m.Variables) {
			return 0, false
		}
		return m.Variables[idx-1].ValueReference, true
	}

	collect := func(u fmi2Unknowns, dst *[]fmi.ValueReference) error {
		for _, unk := range u.Unknowns {
			vr, ok := indexToVR(unk.Index)
			if !ok {
				return errors.New(errors.PhaseParse, errors.KindInvalidData).
					Detail("ModelStructure index %d out of range", unk.Index).Build()
			}
			if dst != nil {
				*dst = append(*dst, vr)
			}
			if unk.Dependencies == nil {
				// Absent attribute means the unknown may depend on
				// everything; present-but-empty means it depends on
				// nothing.
				continue
			}
			deps, err := parseIndexList(*unk.Dependencies, indexToVR)
			if err != nil {
				return err
			}
			m.deps[vr] = deps
		}
		return nil
	}
	if err := collect(doc.ModelStructure.Outputs, &m.Outputs); err != nil {
		return nil, err
	}
	if err := collect(doc.ModelStructure.Derivatives, &m.Derivatives); err != nil {
		return nil, err
	}
	if err := collect(doc.ModelStructure.InitialUnknowns, nil); err != nil {
		return nil, err
	}
	m.ContinuousStates = len(m.Derivatives)

	return m, nil
}

func (x *fmi2Interface) iface() *Interface {
	return &Interface{
		ModelIdentifier:                x.ModelIdentifier,
		ProvidesDirectionalDerivatives: x.ProvidesDirectionalDerivative,
		CanGetAndSetState:              x.CanGetAndSetFMUstate,
		CanHandleVariableStepSize:      x.CanHandleVariableCommunicationStepSize,
	}
}

func parseIndexList(s string, toVR func(int) (fmi.ValueReference, bool)) ([]fmi.ValueReference, error) {
	fields := strings.Fields(s)
	out := make([]fmi.ValueReference, 0, len(fields))
	for _, f := range fields {
		idx, err := strconv.Atoi(f)
		if err != nil {
			return nil, errors.ParseFailed("dependency list", err)
		}
		vr, ok := toVR(idx)
		if !ok {
			return nil, errors.New(errors.PhaseParse, errors.KindInvalidData).
				Detail("dependency index %d out of range", idx).Build()
		}
		out = append(out, vr)
	}
	return out, nil
}

// --- FMI 3.0 ---

type fmi3Doc struct {
	FMIVersion         string         `xml:"fmiVersion,attr"`
	ModelName          string         `xml:"modelName,attr"`
	InstantiationToken string         `xml:"instantiationToken,attr"`
	Description        string         `xml:"description,attr"`
	ModelExchange      *fmi3Interface `xml:"ModelExchange"`
	CoSimulation       *fmi3Interface `xml:"CoSimulation"`
	ScheduledExecution *fmi3Interface `xml:"ScheduledExecution"`
	DefaultExperiment  *xmlExperiment `xml:"DefaultExperiment"`
	ModelVariables     fmi3Variables  `xml:"ModelVariables"`
	ModelStructure     struct {
		Outputs         []fmi3Unknown `xml:"Output"`
		Derivatives     []fmi3Unknown `xml:"ContinuousStateDerivative"`
		EventIndicators []fmi3Unknown `xml:"EventIndicator"`
		InitialUnknowns []fmi3Unknown `xml:"InitialUnknown"`
	} `xml:"ModelStructure"`
}

type fmi3Interface struct {
	ModelIdentifier                        string `xml:"modelIdentifier,attr"`
	ProvidesDirectionalDerivatives         bool   `xml:"providesDirectionalDerivatives,attr"`
	CanGetAndSetFMUState                   bool   `xml:"canGetAndSetFMUState,attr"`
	CanHandleVariableCommunicationStepSize bool   `xml:"canHandleVariableCommunicationStepSize,attr"`
	CanReturnEarlyAfterIntermediateUpdate  bool   `xml:"canReturnEarlyAfterIntermediateUpdate,attr"`
}

func (x *fmi3Interface) iface() *Interface {
	return &Interface{
		ModelIdentifier:                       x.ModelIdentifier,
		ProvidesDirectionalDerivatives:        x.ProvidesDirectionalDerivatives,
		CanGetAndSetState:                     x.CanGetAndSetFMUState,
		CanHandleVariableStepSize:             x.CanHandleVariableCommunicationStepSize,
		CanReturnEarlyAfterIntermediateUpdate: x.CanReturnEarlyAfterIntermediateUpdate,
	}
}

// fmi3Variables decodes the per-type variable elements of FMI3.
type fmi3Variables struct {
	ordered []Variable
}

var fmi3ElemTags = map[string]fmi.TypeTag{
	"Float32": fmi.TagFloat32,
	"Float64": fmi.TagFloat64,
	"Int8":    fmi.TagInt8,
	"UInt8":   fmi.TagUInt8,
	"Int16":   fmi.TagInt16,
	"UInt16":  fmi.TagUInt16,
	"Int32":   fmi.TagInt32,
	"UInt32":  fmi.TagUInt32,
	"Int64":   fmi.TagInt64,
	"UInt64":  fmi.TagUInt64,
	"Boolean": fmi.TagBoolean,
	"String":  fmi.TagString,
	"Binary":  fmi.TagBinary,
	"Clock":   fmi.TagClock,
	// Enumerations are Int64-valued in FMI3.
	"Enumeration": fmi.TagInt64,
}

func (vs *fmi3Variables) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			tag, ok := fmi3ElemTags[t.Name.Local]
			if !ok {
				if err := d.Skip(); err != nil {
					return err
				}
				continue
			}
			var raw struct {
				Name           string `xml:"name,attr"`
				ValueReference uint32 `xml:"valueReference,attr"`
				Description    string `xml:"description,attr"`
				Causality      string `xml:"causality,attr"`
				Variability    string `xml:"variability,attr"`
				Initial        string `xml:"initial,attr"`
				Start          string `xml:"start,attr"`
				Unit           string `xml:"unit,attr"`
			}
			if err := d.DecodeElement(&raw, &t); err != nil {
				return err
			}
			vs.ordered = append(vs.ordered, Variable{
				Name:           raw.Name,
				Description:    raw.Description,
				Unit:           raw.Unit,
				Causality:      raw.Causality,
				Variability:    raw.Variability,
				Initial:        raw.Initial,
				Start:          raw.Start,
				ValueReference: fmi.ValueReference(raw.ValueReference),
				Type:           tag,
			})
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		}
	}
}

type fmi3Unknown struct {
	ValueReference uint32  `xml:"valueReference,attr"`
	Dependencies   *string `xml:"dependencies,attr"`
}

func parseFMI3(data []byte) (*Model, error) {
	var doc fmi3Doc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, errors.ParseFailed("FMI3 modelDescription.xml", err)
	}

	m := &Model{
		FMIVersion:  doc.FMIVersion,
		SpecVersion: fmi.FMI3,
		Name:        doc.ModelName,
		Token:       doc.InstantiationToken,
		Description: doc.Description,
		Experiment:  doc.DefaultExperiment.experiment(),
		Variables:   doc.ModelVariables.ordered,
		deps:        make(map[fmi.ValueReference][]fmi.ValueReference),
	}
	if doc.ModelExchange != nil {
		m.ModelExchange = doc.ModelExchange.iface()
	}
	if doc.CoSimulation != nil {
		m.CoSimulation = doc.CoSimulation.iface()
	}
	if doc.ScheduledExecution != nil {
		m.ScheduledExecution = doc.ScheduledExecution.iface()
	}
	m.index()

	collect := func(unknowns []fmi3Unknown, dst *[]fmi.ValueReference) error {
		for _, unk := range unknowns {
			vr := fmi.ValueReference(unk.ValueReference)
			if dst != nil {
				*dst = append(*dst, vr)
			}
			if unk.Dependencies == nil {
				continue
			}
			// Present-but-empty means "depends on nothing", so a non-nil
			// empty slice is recorded.
			deps := make([]fmi.ValueReference, 0)
			for _, f := range strings.Fields(*unk.Dependencies) {
				n, err := strconv.ParseUint(f, 10, 32)
				if err != nil {
					return errors.ParseFailed("dependency list", err)
				}
				deps = append(deps, fmi.ValueReference(n))
			}
			m.deps[vr] = deps
		}
		return nil
	}
	if err := collect(doc.ModelStructure.Outputs, &m.Outputs); err != nil {
		return nil, err
	}
	if err := collect(doc.ModelStructure.Derivatives, &m.Derivatives); err != nil {
		return nil, err
	}
	if err := collect(doc.ModelStructure.EventIndicators, &m.EventIndicators); err != nil {
		return nil, err
	}
	if err := collect(doc.ModelStructure.InitialUnknowns, nil); err != nil {
		return nil, err
	}
	m.ContinuousStates = len(m.Derivatives)
	m.NumEventIndicators = len(m.EventIndicators)

	return m, nil
}

func (m *Model) index() {
	m.byName = make(map[string]int, len(m.Variables))
	m.byVR = make(map[fmi.ValueReference]int, len(m.Variables))
	for i, v := range m.Variables {
		m.byName[v.Name] = i
		if _, exists := m.byVR[v.ValueReference]; !exists {
			m.byVR[v.ValueReference] = i
		}
	}
}
