// Package spring delegates image building to the Spring Boot build plugins.
//
// The strategy applies to Spring Boot 3 projects that apply the Spring Boot
// Maven or Gradle plugin. The plugin builds the image into the local daemon,
// pushing reuses the docker strategy.
package spring
