package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/shiena/ansicolor"
)

// log is usable before InitLog so library code and tests can log freely.
var log = logrus.New()

// InitLog 初始化日志
func InitLog() {
	log.SetFormatter(&nested.Formatter{
		HideKeys:        true,
		ShowFullLevel:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	logIO := make([]io.Writer, 0)
	if logDir := conf.Output.LogDir; logDir != "" {
		file, err := openLogFile(logDir, time.Now())
		if err != nil {
			fmt.Printf("日志文件打开失败: %s\n", err)
			os.Exit(1)
		}
		logIO = append(logIO, file)
	}
	if conf.Output.OutputTerminal || len(logIO) == 0 {
		logIO = append(logIO, os.Stdout)
	}

	// 融合日志输出
	log.SetOutput(ansicolor.NewAnsiColorWriter(io.MultiWriter(logIO...)))

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		log.SetLevel(logrus.InfoLevel)
	} else {
		log.SetLevel(level)
	}
}

// openLogFile opens the day's log file in dir for appending, creating dir
// when needed.
func openLogFile(dir string, day time.Time) (*os.File, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, errors.Wrap(err, "create log dir")
	}
	filename := filepath.Join(dir, day.Format("2006-01-02.log"))
	file, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	return file, errors.Wrap(err, "open log file")
}
