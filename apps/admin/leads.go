package main

import (
	"context"
	"fmt"

	"github.com/Faiver55/skylearn-flashcards-sub001/core/lead"
)

func (cli *commandLine) exportLeads() error {
	_, err := cli.leadSvc.Export(context.Background(), cli.out, new(lead.QueryFilter))
	return err
}

func (cli *commandLine) mailLeads() error {
	if err := cli.leadSvc.MailExport(context.Background()); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "Leads export sent.")
	return nil
}
