package e2e_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/creack/pty"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Keywave CLI", func() {
	var workDir string

	BeforeEach(func() {
		workDir = GinkgoT().TempDir()
	})

	runKeywave := func(args ...string) (string, string, error) {
		cmd := exec.Command(keywaveBinary, args...)
		cmd.Dir = workDir
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		err := cmd.Run()
		return stdout.String(), stderr.String(), err
	}

	expectExitOne := func(err error) {
		var exitErr *exec.ExitError
		Expect(errors.As(err, &exitErr)).To(BeTrue(), "expected the process to exit with an error, got %v", err)
		Expect(exitErr.ExitCode()).To(Equal(1))
	}

	writeConfig := func(intervalMillis int) string {
		path := filepath.Join(workDir, "keywave.yaml")
		content := fmt.Sprintf("sampling:\n  interval_ms: %d\nlogging:\n  level: error\n", intervalMillis)
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
		return path
	}

	Describe("argument validation", func() {
		It("rejects a missing sample count with the exact message", func() {
			_, stderr, err := runKeywave("wave.dat")
			expectExitOne(err)
			Expect(stderr).To(Equal("Too few arguments provided.\n"))
			Expect(filepath.Join(workDir, "wave.dat")).NotTo(BeAnExistingFile())
		})

		It("rejects a bare invocation with the exact message", func() {
			_, stderr, err := runKeywave()
			expectExitOne(err)
			Expect(stderr).To(Equal("Too few arguments provided.\n"))
		})

		It("rejects surplus arguments with the exact message", func() {
			_, stderr, err := runKeywave("wave.dat", "3", "extra")
			expectExitOne(err)
			Expect(stderr).To(Equal("Too many arguments provided.\n"))
			Expect(filepath.Join(workDir, "wave.dat")).NotTo(BeAnExistingFile())
		})

		It("rejects a non-numeric sample count before creating the file", func() {
			_, stderr, err := runKeywave("wave.dat", "ten")
			expectExitOne(err)
			Expect(stderr).To(ContainSubstring("not a whole number"))
			Expect(filepath.Join(workDir, "wave.dat")).NotTo(BeAnExistingFile())
		})

		It("rejects a negative sample count", func() {
			_, stderr, err := runKeywave("wave.dat", "-4")
			expectExitOne(err)
			Expect(stderr).To(ContainSubstring("negative"))
			Expect(filepath.Join(workDir, "wave.dat")).NotTo(BeAnExistingFile())
		})
	})

	Describe("informational flags", func() {
		It("prints the version", func() {
			stdout, _, err := runKeywave("-version")
			Expect(err).NotTo(HaveOccurred())
			Expect(stdout).To(ContainSubstring("(go"))
		})

		It("prints the resolved plan without recording", func() {
			stdout, _, err := runKeywave("-plan-only", "wave.dat", "4")
			Expect(err).NotTo(HaveOccurred())
			Expect(stdout).To(ContainSubstring("Resolved recording plan"))
			Expect(stdout).To(ContainSubstring("samples: 4"))
			Expect(filepath.Join(workDir, "wave.dat")).NotTo(BeAnExistingFile())
		})

		It("reports through doctor that a redirected stdin cannot record", func() {
			stdout, _, err := runKeywave("-doctor")
			expectExitOne(err)
			Expect(stdout).To(ContainSubstring("Input diagnostics:"))
			Expect(stdout).To(ContainSubstring("terminal: false"))
		})
	})

	Describe("recording", func() {
		It("writes an empty file and exits cleanly for zero samples", func() {
			outPath := filepath.Join(workDir, "wave.dat")
			_, _, err := runKeywave(outPath, "0")
			Expect(err).NotTo(HaveOccurred())

			info, statErr := os.Stat(outPath)
			Expect(statErr).NotTo(HaveOccurred())
			Expect(info.Size()).To(BeZero())
		})

		It("truncates a previous recording for zero samples", func() {
			outPath := filepath.Join(workDir, "wave.dat")
			Expect(os.WriteFile(outPath, []byte("1\n1\n1\n"), 0o644)).To(Succeed())

			_, _, err := runKeywave(outPath, "0")
			Expect(err).NotTo(HaveOccurred())

			info, statErr := os.Stat(outPath)
			Expect(statErr).NotTo(HaveOccurred())
			Expect(info.Size()).To(BeZero())
		})

		It("fails when stdin is not a terminal", func() {
			outPath := filepath.Join(workDir, "wave.dat")
			_, stderr, err := runKeywave(outPath, "2")
			expectExitOne(err)
			Expect(stderr).To(ContainSubstring("configure terminal"))
			Expect(outPath).NotTo(BeAnExistingFile())
		})
	})

	Describe("recording through a pty", func() {
		var (
			ptmx *os.File
			tty  *os.File
		)

		BeforeEach(func() {
			var err error
			ptmx, tty, err = pty.Open()
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			ptmx.Close()
			tty.Close()
		})

		startRecorder := func(cfgPath, outPath string, samples int) (*exec.Cmd, chan error, *bytes.Buffer) {
			cmd := exec.Command(keywaveBinary, "-config", cfgPath, outPath, fmt.Sprintf("%d", samples))
			cmd.Dir = workDir
			cmd.Stdin = tty
			stderr := &bytes.Buffer{}
			cmd.Stderr = stderr
			Expect(cmd.Start()).To(Succeed())

			// Drain the echo of typed bytes so writes to the pty never block.
			go io.Copy(io.Discard, ptmx)

			done := make(chan error, 1)
			go func() { done <- cmd.Wait() }()
			return cmd, done, stderr
		}

		It("records zeros while no key is pressed", func() {
			cfgPath := writeConfig(40)
			outPath := filepath.Join(workDir, "silence.dat")

			_, done, stderr := startRecorder(cfgPath, outPath, 3)

			var waitErr error
			Eventually(done, "5s").Should(Receive(&waitErr))
			Expect(waitErr).NotTo(HaveOccurred(), "stderr: %s", stderr.String())

			data, err := os.ReadFile(outPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("0\n0\n0\n"))
		})

		It("records ones while the space bar is held", func() {
			cfgPath := writeConfig(40)
			outPath := filepath.Join(workDir, "held.dat")

			_, done, stderr := startRecorder(cfgPath, outPath, 3)

			stop := make(chan struct{})
			go func() {
				ticker := time.NewTicker(5 * time.Millisecond)
				defer ticker.Stop()
				for {
					select {
					case <-stop:
						return
					case <-ticker.C:
						ptmx.Write([]byte(" "))
					}
				}
			}()
			defer close(stop)

			var waitErr error
			Eventually(done, "5s").Should(Receive(&waitErr))
			Expect(waitErr).NotTo(HaveOccurred(), "stderr: %s", stderr.String())

			data, err := os.ReadFile(outPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("1\n1\n1\n"))
		})

		It("stops on interrupt and keeps the samples taken so far", func() {
			cfgPath := writeConfig(40)
			outPath := filepath.Join(workDir, "partial.dat")

			cmd, done, _ := startRecorder(cfgPath, outPath, 50)

			time.Sleep(130 * time.Millisecond)
			Expect(cmd.Process.Signal(os.Interrupt)).To(Succeed())

			var waitErr error
			Eventually(done, "3s").Should(Receive(&waitErr))
			expectExitOne(waitErr)

			data, err := os.ReadFile(outPath)
			Expect(err).NotTo(HaveOccurred())
			lines := strings.Count(string(data), "\n")
			Expect(lines).To(BeNumerically("<", 50))
			for _, line := range strings.Split(strings.TrimSuffix(string(data), "\n"), "\n") {
				if line == "" {
					continue
				}
				Expect(line).To(Equal("0"))
			}
		})
	})
})
