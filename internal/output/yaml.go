package output

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/aryankumar/mdlreport/internal/executor"
)

// YAMLFormatter formats output as YAML
type YAMLFormatter struct {
	options *Options
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(opts *Options) *YAMLFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &YAMLFormatter{
		options: opts,
	}
}

// Format outputs a single data item as YAML
func (f *YAMLFormatter) Format(w io.Writer, data interface{}) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	return encoder.Encode(data)
}

// FormatMultiCourse outputs multiple course results as YAML
func (f *YAMLFormatter) FormatMultiCourse(w io.Writer, results []executor.Result) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	return encoder.Encode(resultItems(results))
}

// resultItems converts results to a serialization-friendly structure
// shared by the JSON and YAML formatters.
func resultItems(results []executor.Result) []map[string]interface{} {
	output := make([]map[string]interface{}, len(results))

	for i, result := range results {
		item := map[string]interface{}{
			"course":   result.CourseName,
			"duration": result.Duration.String(),
		}

		if result.Error != nil {
			item["status"] = "failed"
			item["error"] = result.Error.Error()
		} else {
			item["status"] = "success"
			item["data"] = result.Data
		}

		output[i] = item
	}

	return output
}
