package vehicle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"sigs.k8s.io/yaml"

	"github.com/autopeer-io/rentfleet/internal/pkg/httputil"
	"github.com/autopeer-io/rentfleet/pkg/log"
	"github.com/autopeer-io/rentfleet/pkg/options"
)

// Spec is one catalog entry.
type Spec struct {
	Name           string `json:"name"`
	AirConditioner bool   `json:"has_air_conditioner"`
	Heater         bool   `json:"has_heater"`
	Navigator      bool   `json:"has_navigator"`
}

// UnmarshalJSON accepts "brand" as an alias of "name".
func (s *Spec) UnmarshalJSON(data []byte) error {
	type plain Spec
	var aux struct {
		plain
		Brand string `json:"brand"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*s = Spec(aux.plain)
	if s.Name == "" {
		s.Name = aux.Brand
	}
	return nil
}

// ParseCatalog decodes a JSON or YAML list of vehicle specs.
func ParseCatalog(data []byte) ([]Spec, error) {
	var specs []Spec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, httputil.Validationf("decode catalog: %v", err)
	}

	seen := make(map[string]struct{}, len(specs))
	for i := range specs {
		specs[i].Name = strings.TrimSpace(specs[i].Name)
		if specs[i].Name == "" {
			return nil, httputil.Validationf("catalog entry %d has no name", i)
		}
		key := strings.ToLower(specs[i].Name)
		if _, dup := seen[key]; dup {
			return nil, httputil.Validationf("duplicate vehicle %q in catalog", specs[i].Name)
		}
		seen[key] = struct{}{}
	}
	return specs, nil
}

// LoadCatalog reads the catalog from source: a local path, a file:// URL or
// an s3://bucket/key object fetched with the S3 options.
func LoadCatalog(ctx context.Context, source string, s3 *options.S3Options) ([]Spec, error) {
	var (
		data []byte
		err  error
	)

	switch {
	case strings.HasPrefix(source, "s3://"):
		data, err = readS3(ctx, source, s3)
	case strings.HasPrefix(source, "file://"):
		data, err = os.ReadFile(strings.TrimPrefix(source, "file://"))
	default:
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %q: %w", source, err)
	}

	specs, err := ParseCatalog(data)
	if err != nil {
		return nil, err
	}
	log.Info("Vehicle catalog loaded", "source", source, "vehicles", len(specs))
	return specs, nil
}

func readS3(ctx context.Context, source string, opts *options.S3Options) ([]byte, error) {
	if opts == nil {
		return nil, fmt.Errorf("s3 source %q requires s3 options", source)
	}

	u, err := url.Parse(source)
	if err != nil {
		return nil, err
	}
	bucket, key := u.Host, strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("s3 source must look like s3://bucket/key, got %q", source)
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	obj, err := client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	return io.ReadAll(obj)
}
