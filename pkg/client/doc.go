// Package client wraps the external systems kubepack talks to.
//
//   - docker: Docker daemon image build, tag and push
//   - netretry: retry and auth classification for registry calls
//   - oci: daemonless OCI image assembly and registry push
package client
