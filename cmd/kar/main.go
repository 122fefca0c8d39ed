// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"errors"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/exp/mmap"

	"github.com/devblok/glaze/kar"
)

func init() {
	u, err := user.Current()
	if err != nil {
		currentUserName = "unknown"
		return
	}
	currentUserName = u.Name
}

var (
	currentUserName string
	author          = flag.String("author", "", "Set the author of the package when compressing, defaults to the current user")
	version         = flag.Int64("version", 1, "Archive version number to create it with")
	extract         = flag.String("e", "", "Extract the given archive")
	compress        = flag.String("c", "", "Compress the given file/folder")
	dstPath         = flag.String("f", "", "Destination file when compressing, directory when extracting")
	silent          = flag.Bool("s", false, "Silent")
)

func main() {
	var opMade bool
	flag.Parse()

	if *extract != "" && *compress != "" {
		panic(errors.New("only one operation at a time"))
	}

	if *extract != "" {
		opMade = true
		if err := extractFiles(); err != nil {
			panic(err)
		}
	}

	if *compress != "" {
		opMade = true
		if err := compressFiles(); err != nil {
			panic(err)
		}
	}

	if !opMade {
		flag.PrintDefaults()
	}
}

func compressFiles() error {
	dstFile := *dstPath
	if dstFile == "" {
		dstFile = "out.kar"
	}

	if _, err := os.Stat(dstFile); err == nil {
		return errors.New("destination file exists, will not overwrite")
	}

	dst, err := os.Create(dstFile)
	if err != nil {
		return err
	}
	defer dst.Close()

	var filesToCompress []string
	if err := filepath.Walk(*compress, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		filesToCompress = append(filesToCompress, path)
		return nil
	}); err != nil {
		return err
	}

	archiveAuthor := *author
	if archiveAuthor == "" {
		archiveAuthor = currentUserName
	}

	karBuilder, err := kar.NewBuilder(kar.Header{
		Author:      archiveAuthor,
		DateCreated: time.Now().Unix(),
		Version:     *version,
	})
	if err != nil {
		return err
	}
	defer karBuilder.Close()

	for _, ftc := range filesToCompress {
		f, err := os.Open(ftc)
		if err != nil {
			return err
		}
		if err := karBuilder.Add(filepath.ToSlash(ftc), f); err != nil {
			f.Close()
			return err
		}
		f.Close()
		if !*silent {
			fmt.Println(ftc)
		}
	}

	_, err = karBuilder.WriteTo(dst)
	return err
}

func extractFiles() error {
	at, err := mmap.Open(*extract)
	if err != nil {
		return err
	}
	defer at.Close()

	archive, err := kar.Open(at)
	if err != nil {
		return err
	}

	dst := *dstPath
	if dst == "" {
		dst = "."
	}
	dst = filepath.Clean(dst)

	for _, entry := range archive.Header().Index {
		target := filepath.Join(dst, filepath.FromSlash(entry.Name))
		if rel, err := filepath.Rel(dst, target); err != nil || strings.HasPrefix(rel, "..") {
			return fmt.Errorf("entry escapes destination: %s", entry.Name)
		}

		data, err := archive.ReadAll(entry.Name)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		if err := ioutil.WriteFile(target, data, 0644); err != nil {
			return err
		}
		if !*silent {
			fmt.Println(entry.Name)
		}
	}
	return nil
}
