// Package device runs tabulation kernels on OCCA devices. A kernel body
// written in OCCA C for a single entity is wrapped in a batch kernel whose
// outer loop runs over entities; buffers are entity-major and each entity's
// slices follow the same layout as the Go calling convention.
package device

import (
	"fmt"
	"sort"
	"strings"

	"github.com/notargets/tabulate/kernel"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"
)

// Source describes one device kernel. Body is the per-entity code; it sees
//
//	real_t* A                          TensorSize values
//	const real_t* w                    CoefficientSize values
//	const real_t* c                    ConstantSize values, shared by all entities
//	const real_t* coordinate_dofs      CoordinateSize values
//	const int* entity_local_index      Restrictions values
//	const int* quadrature_permutation  Restrictions values
//
// plus every table and define.
type Source struct {
	Name      string
	Body      string
	Precision kernel.Precision // Float32 or Float64

	TensorSize      int
	CoefficientSize int
	ConstantSize    int
	CoordinateSize  int
	Restrictions    int // 1 or 2

	// Batch is the most entities one launch tabulates
	Batch int

	Tables  map[string]mat.Matrix // emitted as const real_t name[rows][cols]
	Defines map[string]int
}

// Validate checks the source can be generated
func (s Source) Validate() error {
	var err error
	if s.Name == "" {
		err = multierr.Append(err, fmt.Errorf("kernel name is empty"))
	}
	if s.Body == "" {
		err = multierr.Append(err, fmt.Errorf("kernel %s has no body", s.Name))
	}
	if s.Precision != kernel.Float32 && s.Precision != kernel.Float64 {
		err = multierr.Append(err, fmt.Errorf("kernel %s: device kernels are real, got %s", s.Name, s.Precision))
	}
	if s.TensorSize < 1 {
		err = multierr.Append(err, fmt.Errorf("kernel %s: tensor size %d", s.Name, s.TensorSize))
	}
	if s.CoefficientSize < 0 || s.ConstantSize < 0 || s.CoordinateSize < 0 {
		err = multierr.Append(err, fmt.Errorf("kernel %s: negative buffer size", s.Name))
	}
	if s.Restrictions != 1 && s.Restrictions != 2 {
		err = multierr.Append(err, fmt.Errorf("kernel %s: restrictions must be 1 or 2, got %d", s.Name, s.Restrictions))
	}
	if s.Batch < 1 {
		err = multierr.Append(err, fmt.Errorf("kernel %s: batch %d", s.Name, s.Batch))
	}
	return err
}

// Generate returns the full OCCA source
func (s Source) Generate() (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(s.typeDefinitions())
	sb.WriteString(s.staticTables())
	sb.WriteString(s.declaration())
	sb.WriteString(" {\n")
	sb.WriteString("\tfor (int e = 0; e < NBATCH; ++e; @outer) {\n")
	sb.WriteString("\t\tfor (int one = 0; one < 1; ++one; @inner) {\n")
	sb.WriteString("\t\t\tif (e < N[0]) {\n")
	sb.WriteString("\t\t\t\treal_t* A = A_global + e*TENSOR_SIZE;\n")
	sb.WriteString("\t\t\t\tconst real_t* w = w_global + e*COEFFICIENT_SIZE;\n")
	sb.WriteString("\t\t\t\tconst real_t* coordinate_dofs = x_global + e*COORDINATE_SIZE;\n")
	sb.WriteString("\t\t\t\tconst int* entity_local_index = eli_global + e*RESTRICTIONS;\n")
	sb.WriteString("\t\t\t\tconst int* quadrature_permutation = perm_global + e*RESTRICTIONS;\n")
	for _, line := range strings.Split(s.Body, "\n") {
		if strings.TrimSpace(line) != "" {
			sb.WriteString("\t\t\t\t")
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	sb.WriteString("\t\t\t}\n")
	sb.WriteString("\t\t}\n")
	sb.WriteString("\t}\n")
	sb.WriteString("}\n")
	return sb.String(), nil
}

func (s Source) declaration() string {
	params := []string{
		"const int* N",
		"real_t* A_global",
		"const real_t* w_global",
		"const real_t* c",
		"const real_t* x_global",
		"const int* eli_global",
		"const int* perm_global",
	}
	return fmt.Sprintf("@kernel void %s(\n\t%s\n)", s.Name, strings.Join(params, ",\n\t"))
}

func (s Source) typeDefinitions() string {
	var sb strings.Builder
	floatTypeStr, floatSuffix := "double", ""
	if s.Precision == kernel.Float32 {
		floatTypeStr, floatSuffix = "float", "f"
	}
	sb.WriteString(fmt.Sprintf("typedef %s real_t;\n", floatTypeStr))
	sb.WriteString(fmt.Sprintf("#define REAL_ZERO 0.0%s\n", floatSuffix))
	sb.WriteString(fmt.Sprintf("#define REAL_ONE 1.0%s\n", floatSuffix))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("#define NBATCH %d\n", s.Batch))
	sb.WriteString(fmt.Sprintf("#define TENSOR_SIZE %d\n", s.TensorSize))
	sb.WriteString(fmt.Sprintf("#define COEFFICIENT_SIZE %d\n", s.CoefficientSize))
	sb.WriteString(fmt.Sprintf("#define CONSTANT_SIZE %d\n", s.ConstantSize))
	sb.WriteString(fmt.Sprintf("#define COORDINATE_SIZE %d\n", s.CoordinateSize))
	sb.WriteString(fmt.Sprintf("#define RESTRICTIONS %d\n", s.Restrictions))
	for _, name := range sortedNames(s.Defines) {
		sb.WriteString(fmt.Sprintf("#define %s %d\n", name, s.Defines[name]))
	}
	sb.WriteString("\n")
	return sb.String()
}

func (s Source) staticTables() string {
	if len(s.Tables) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, name := range sortedNames(s.Tables) {
		sb.WriteString(formatStaticMatrix(name, s.Tables[name], s.Precision))
	}
	return sb.String()
}

// formatStaticMatrix formats a matrix as a row-major static C array
func formatStaticMatrix(name string, m mat.Matrix, p kernel.Precision) string {
	rows, cols := m.Dims()
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("const real_t %s[%d][%d] = {\n", name, rows, cols))
	for i := 0; i < rows; i++ {
		sb.WriteString("    {")
		for j := 0; j < cols; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			val := m.At(i, j)
			if p == kernel.Float32 {
				sb.WriteString(fmt.Sprintf("%.7ef", val))
			} else {
				sb.WriteString(fmt.Sprintf("%.17e", val))
			}
		}
		sb.WriteString("}")
		if i < rows-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("};\n\n")
	return sb.String()
}

func sortedNames[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
