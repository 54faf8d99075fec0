package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	kdbx "github.com/packetops/openkeepass"
	"github.com/packetops/openkeepass/internal/logging"
	"github.com/packetops/openkeepass/kdbxml"
	"github.com/packetops/openkeepass/keyfile"
)

var CLI struct {
	LogLevel string `short:"l" help:"Application log level"`

	Inspect struct {
		Password string `optional name:"password" help:"Database password (unused; inspect never decrypts)"`
		KeyFile  string `optional name:"keyfile" help:"Path to a KDBX key-file"`
		File     string `arg name:"file" help:"Path to a KDBX file"`
	} `cmd help:"Print a KDBX file's header fields without decrypting it"`

	Cat struct {
		Password string `name:"password" help:"Database password"`
		KeyFile  string `optional name:"keyfile" help:"Path to a KDBX key-file"`
		File     string `arg name:"file" help:"Path to a KDBX file"`
	} `cmd help:"Decrypt a KDBX file and print every group/entry title and username"`

	Rewrite struct {
		Password string `name:"password" help:"Source database password"`
		KeyFile  string `optional name:"keyfile" help:"Path to a KDBX key-file for the source file"`
		Rounds   uint64 `name:"rounds" help:"Key-transform rounds for the rewritten file"`
		In       string `arg name:"in" help:"Path to the source KDBX file"`
		Out      string `arg name:"out" help:"Path to write the rewritten KDBX file"`
	} `cmd help:"Read a KDBX file and re-encrypt it with a fresh header and seeds"`

	New struct {
		Password string `name:"password" help:"Password for the new database"`
		Out      string `arg name:"out" help:"Path to write the new KDBX file"`
	} `cmd help:"Create a new, empty KDBX database"`
}

var defaultLogLevel = "error"

func main() {
	ctx := kong.Parse(&CLI)

	logger := logging.GetRoot()
	if CLI.LogLevel != "" {
		defaultLogLevel = CLI.LogLevel
	}
	logger.SetLevel(defaultLogLevel)

	switch ctx.Command() {
	case "inspect <file>":
		runInspect(logger)
	case "cat <file>":
		runCat(logger)
	case "rewrite <in> <out>":
		runRewrite(logger)
	case "new <out>":
		runNew(logger)
	default:
		logger.Fatal(fmt.Sprintf("unknown command %q", ctx.Command()))
	}
}

func runInspect(logger logging.Logger) {
	data, err := os.ReadFile(CLI.Inspect.File)
	if err != nil {
		logger.WithError(err).Fatal("could not read file")
	}

	header, err := kdbx.ReadHeader(data)
	if err != nil {
		logger.WithError(err).Fatal("could not parse header")
	}

	fmt.Printf("version: %d.%d\n", header.VersionMajor(), header.VersionMinor())
	fmt.Printf("compression: %d\n", header.Compression())
	fmt.Printf("transform rounds: %d\n", header.TransformRounds())
	fmt.Printf("header size: %d bytes\n", header.HeaderSize())
}

func readCredentials(password, keyFilePath string, logger logging.Logger) *kdbx.Credentials {
	opts := []kdbx.CredentialOption{}
	if password != "" {
		opts = append(opts, kdbx.WithPassword([]byte(password)))
	}
	if keyFilePath != "" {
		raw, err := os.ReadFile(keyFilePath)
		if err != nil {
			logger.WithError(err).Fatal("could not read key file")
		}
		secret, err := keyfile.Parse(raw)
		if err != nil {
			logger.WithError(err).Fatal("could not parse key file")
		}
		opts = append(opts, kdbx.WithKeyFileSecret(secret))
	}

	creds, err := kdbx.NewCredentials(opts...)
	if err != nil {
		logger.WithError(err).Fatal("invalid credentials")
	}
	return creds
}

func runCat(logger logging.Logger) {
	data, err := os.ReadFile(CLI.Cat.File)
	if err != nil {
		logger.WithError(err).Fatal("could not read file")
	}

	creds := readCredentials(CLI.Cat.Password, CLI.Cat.KeyFile, logger)
	tree, _, err := kdbx.Open(context.Background(), data, kdbxml.Codec{}, kdbx.WithCredentials(creds))
	if err != nil {
		logger.WithError(err).Fatal("could not open database")
	}

	doc, ok := tree.(*kdbxml.Document)
	if !ok {
		logger.Fatal("unexpected document type")
	}

	printGroups(doc.Root.Groups, "")
}

// printGroups never prints a password: a read-path demo that surfaced
// plaintext secrets to a terminal would defeat the point of protecting
// them in the first place.
func printGroups(groups []kdbxml.Group, indent string) {
	for _, g := range groups {
		fmt.Printf("%s%s/\n", indent, g.Name)
		for _, e := range g.Entries {
			fmt.Printf("%s  %s (%s)\n", indent, e.GetContent("Title"), e.GetContent("UserName"))
		}
		printGroups(g.Groups, indent+"  ")
	}
}

func runRewrite(logger logging.Logger) {
	data, err := os.ReadFile(CLI.Rewrite.In)
	if err != nil {
		logger.WithError(err).Fatal("could not read input file")
	}

	readCreds := readCredentials(CLI.Rewrite.Password, CLI.Rewrite.KeyFile, logger)
	tree, _, err := kdbx.Open(context.Background(), data, kdbxml.Codec{}, kdbx.WithCredentials(readCreds))
	if err != nil {
		logger.WithError(err).Fatal("could not open source database")
	}

	writeCreds, err := kdbx.NewCredentials(kdbx.WithPassword([]byte(CLI.Rewrite.Password)))
	if err != nil {
		logger.WithError(err).Fatal("invalid credentials")
	}

	out, err := os.Create(CLI.Rewrite.Out)
	if err != nil {
		logger.WithError(err).Fatal("could not create output file")
	}
	defer out.Close()

	if _, err := kdbx.Write(context.Background(), tree, kdbxml.Codec{}, out, kdbx.WithWriteCredentials(writeCreds), kdbx.WithTransformRounds(CLI.Rewrite.Rounds)); err != nil {
		logger.WithError(err).Fatal("could not write rewritten database")
	}
}

func runNew(logger logging.Logger) {
	doc := kdbxml.NewDocument()
	group := kdbxml.NewGroup("Root")
	doc.Root.Groups = append(doc.Root.Groups, group)

	creds, err := kdbx.NewCredentials(kdbx.WithPassword([]byte(CLI.New.Password)))
	if err != nil {
		logger.WithError(err).Fatal("invalid credentials")
	}

	out, err := os.Create(CLI.New.Out)
	if err != nil {
		logger.WithError(err).Fatal("could not create output file")
	}
	defer out.Close()

	if _, err := kdbx.Write(context.Background(), doc, kdbxml.Codec{}, out, kdbx.WithWriteCredentials(creds)); err != nil {
		logger.WithError(err).Fatal("could not write new database")
	}
}
