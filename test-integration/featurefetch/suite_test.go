package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var (
	ctx    context.Context
	cancel context.CancelFunc
)

func TestFeatureFetchIntegration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "FeatureFetch Integration Suite")
}

var _ = BeforeSuite(func() {
	ctx, cancel = context.WithCancel(context.TODO())
})

var _ = AfterSuite(func() {
	cancel()
})

// writeConfigYAML writes a daemon configuration pointing at the given mock
// backend and snapshot directory, and returns its path.
func writeConfigYAML(dir, endpoint, healthEndpoint, snapshotPath string) string {
	content := fmt.Sprintf(`resource:
  name: space-weather
  endpoint: %s
  healthEndpoint: %s
  fetchTimeout: "5s"
snapshot:
  storage: file
  path: %s
`, endpoint, healthEndpoint, snapshotPath)

	path := filepath.Join(dir, "config.yaml")
	Expect(os.WriteFile(path, []byte(content), 0600)).To(Succeed())
	return path
}
